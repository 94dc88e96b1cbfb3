package scraper

import (
	"testing"
)

func TestParseCourseTitle(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		wantName  string
		wantClass string
	}{
		{"title with class code", "Teknologi Informasi dan Komunikasi (NO)", "Teknologi Informasi dan Komunikasi", "NO"},
		{"title without suffix", "Kalkulus Dasar", "Kalkulus Dasar", ""},
		{"title with spaces around suffix", "Fisika Dasar  (A1) ", "Fisika Dasar", "A1"},
		{"empty title", "", "", ""},
		{"parentheses mid-title keep last group", "Statistika (Lanjut) (B2)", "Statistika (Lanjut)", "B2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, class := ParseCourseTitle(tt.title)
			if name != tt.wantName {
				t.Errorf("name = %q, want %q", name, tt.wantName)
			}
			if class != tt.wantClass {
				t.Errorf("classCode = %q, want %q", class, tt.wantClass)
			}
		})
	}
}

func TestParseMemberLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantName string
		wantRole string
	}{
		{"name with role", "Andi Pratama (Ketua)", "Andi Pratama", "Ketua"},
		{"name without role", "Siti Rahma", "Siti Rahma", ""},
		{"extra whitespace", "  Budi Santoso (Anggota)  ", "Budi Santoso", "Anggota"},
		{"empty line", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			member := ParseMemberLine(tt.line)
			if member.Name != tt.wantName {
				t.Errorf("name = %q, want %q", member.Name, tt.wantName)
			}
			if member.Role != tt.wantRole {
				t.Errorf("role = %q, want %q", member.Role, tt.wantRole)
			}
		})
	}
}

func TestAssignRoles(t *testing.T) {
	tests := []struct {
		name      string
		members   []Member
		wantRoles []string
	}{
		{
			"no roles makes first the leader",
			[]Member{{Name: "A"}, {Name: "B"}, {Name: "C"}},
			[]string{RoleLeader, RoleMember, RoleMember},
		},
		{
			"existing ketua keeps first a plain member",
			[]Member{{Name: "A"}, {Name: "B", Role: "Ketua"}},
			[]string{RoleMember, "Ketua"},
		},
		{
			"existing leader case-insensitive",
			[]Member{{Name: "A"}, {Name: "B", Role: "Group LEADER"}},
			[]string{RoleMember, "Group LEADER"},
		},
		{
			"explicit roles untouched",
			[]Member{{Name: "A", Role: "Sekretaris"}, {Name: "B"}},
			[]string{"Sekretaris", RoleLeader},
		},
		{
			"empty slice",
			nil,
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AssignRoles(tt.members)
			if len(got) != len(tt.wantRoles) {
				t.Fatalf("got %d members, want %d", len(got), len(tt.wantRoles))
			}
			for i, want := range tt.wantRoles {
				if got[i].Role != want {
					t.Errorf("member %d role = %q, want %q", i, got[i].Role, want)
				}
			}
		})
	}
}

func TestAssignRolesDoesNotMutateInput(t *testing.T) {
	in := []Member{{Name: "A"}, {Name: "B"}}
	_ = AssignRoles(in)
	if in[0].Role != "" || in[1].Role != "" {
		t.Errorf("input slice was mutated: %+v", in)
	}
}

const dashboardFixture = `
<html><body>
<a href="/panel/classes/12345/sections">
  <div class="card card_custom-class-item">
    <div class="card__title">Teknologi Informasi dan Komunikasi (NO)</div>
    <div class="card__subtitle">Informatika</div>
    <div class="card__info_class-item">
      <span class="icon-user-mini"></span>
      <p><span>Dr. Budi Santoso</span><a class="card__info_see-more" data-tooltip="Rina Wijaya">+1 lainnya</a></p>
    </div>
    <div class="card__info_class-item">
      <span class="icon-calendar-days-mini"></span>
      <p><span>Senin, 08:00 - 10:00</span></p>
    </div>
  </div>
</a>
<a href="/panel/classes/67890/sections">
  <div class="card card_custom-class-item">
    <div class="card__title">Kalkulus Dasar</div>
    <div class="card__subtitle">Matematika</div>
    <div class="card__info_class-item">
      <span class="icon-user-mini"></span>
      <p><span>Prof. Sari Dewi</span></p>
    </div>
  </div>
</a>
<a href="/panel/announcements">
  <div class="card card_custom-class-item">
    <div class="card__title">Pengumuman</div>
  </div>
</a>
</body></html>`

func TestParseCourses(t *testing.T) {
	courses, err := ParseCourses(dashboardFixture)
	if err != nil {
		t.Fatal(err)
	}
	if len(courses) != 2 {
		t.Fatalf("got %d courses, want 2", len(courses))
	}

	first := courses[0]
	if first.Code != "12345" {
		t.Errorf("code = %q, want 12345", first.Code)
	}
	if first.Name != "Teknologi Informasi dan Komunikasi" {
		t.Errorf("name = %q", first.Name)
	}
	if first.ClassCode != "NO" {
		t.Errorf("classCode = %q, want NO", first.ClassCode)
	}
	if first.Program != "Informatika" {
		t.Errorf("program = %q, want Informatika", first.Program)
	}
	if first.Instructor != "Dr. Budi Santoso dan Rina Wijaya" {
		t.Errorf("instructor = %q", first.Instructor)
	}
	if first.Schedule != "Senin, 08:00 - 10:00" {
		t.Errorf("schedule = %q", first.Schedule)
	}

	second := courses[1]
	if second.Code != "67890" || second.Name != "Kalkulus Dasar" {
		t.Errorf("unexpected second course: %+v", second)
	}
	if second.Instructor != "Prof. Sari Dewi" {
		t.Errorf("instructor = %q, want single instructor without join", second.Instructor)
	}
	if second.Schedule != "" {
		t.Errorf("schedule = %q, want empty", second.Schedule)
	}
}

func TestParseCoursesEmptyPage(t *testing.T) {
	courses, err := ParseCourses("<html><body><p>Belum memiliki kelas</p></body></html>")
	if err != nil {
		t.Fatal(err)
	}
	if len(courses) != 0 {
		t.Errorf("got %d courses, want 0", len(courses))
	}
}

const groupsFixture = `
<html><body>
<p>Total <span class="has-text-darkblue">5</span> kelompok</p>
<div class="box is-boxed-3 groupteams-box">
  <div class="team-name">Kelompok Alpha</div>
  <div class="font-14 font-w-500 has-text-grey2">5 anggota</div>
</div>
<div class="box is-boxed-3 groupteams-box">
  <div class="font-14 font-w-500 has-text-grey2">3 anggota</div>
</div>
</body></html>`

func TestParseGroupBoxes(t *testing.T) {
	boxes, total, err := ParseGroupBoxes(groupsFixture)
	if err != nil {
		t.Fatal(err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5 from summary element", total)
	}
	if len(boxes) != 2 {
		t.Fatalf("got %d boxes, want 2", len(boxes))
	}
	if boxes[0].Name != "Kelompok Alpha" || boxes[0].Info != "5 anggota" {
		t.Errorf("unexpected first box: %+v", boxes[0])
	}
	if boxes[1].Name != "Kelompok 2" {
		t.Errorf("nameless box = %q, want positional default", boxes[1].Name)
	}
}

func TestParseGroupBoxesNoSummary(t *testing.T) {
	html := `<div class="box is-boxed-3 groupteams-box"><div class="team-name">Tim A</div></div>`
	boxes, total, err := ParseGroupBoxes(html)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(boxes) != 1 {
		t.Errorf("total = %d, boxes = %d, want 1 and 1", total, len(boxes))
	}
}

func TestParseGroupBoxesEmpty(t *testing.T) {
	boxes, total, err := ParseGroupBoxes("<html><body></body></html>")
	if err != nil {
		t.Fatal(err)
	}
	if total != 0 || len(boxes) != 0 {
		t.Errorf("total = %d, boxes = %d, want 0 and 0", total, len(boxes))
	}
}

const discussionFixture = `
<html><body>
<div class="content-info">
  <div class="columns is-mobile is-tablet is-dekstop is-vcentered is-gapless">
    <div class="font-14 font-w-400">Andi Pratama (Ketua)</div>
  </div>
  <div class="columns is-mobile is-tablet is-dekstop is-vcentered is-gapless">
    <div class="font-14 font-w-400">Siti Rahma</div>
  </div>
  <div class="columns is-mobile is-tablet is-dekstop is-vcentered is-gapless">
    <div class="other-class">not a member row</div>
  </div>
</div>
</body></html>`

func TestParseMembers(t *testing.T) {
	members, err := ParseMembers(discussionFixture)
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 2 {
		t.Fatalf("got %d members, want 2", len(members))
	}
	if members[0].Name != "Andi Pratama" || members[0].Role != "Ketua" {
		t.Errorf("unexpected first member: %+v", members[0])
	}
	if members[1].Name != "Siti Rahma" || members[1].Role != "" {
		t.Errorf("unexpected second member: %+v", members[1])
	}
}
