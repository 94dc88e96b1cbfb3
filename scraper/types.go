package scraper

// Course is one course card extracted from the dashboard.
type Course struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	ClassCode  string `json:"class_code"`
	Program    string `json:"program"`
	Instructor string `json:"instructor"`
	Schedule   string `json:"schedule"`
}

// Member is one group member row. Role is always populated after
// AssignRoles has run.
type Member struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// GroupBox is the metadata visible on a group card before opening it.
type GroupBox struct {
	Name string `json:"name"`
	Info string `json:"info"`
}

// Group is one scraped group with its members. Error is set when the group
// could not be opened; the run continues past it.
type Group struct {
	Name    string   `json:"name"`
	Info    string   `json:"info,omitempty"`
	Index   int      `json:"index"`
	Members []Member `json:"members"`
	Error   string   `json:"error,omitempty"`
}

// GroupsResult is the outcome of extracting all groups of one course.
type GroupsResult struct {
	Success       bool    `json:"success"`
	CourseCode    string  `json:"course_code"`
	TotalGroups   int     `json:"total_groups"`
	ScrapedGroups int     `json:"scraped_groups"`
	Groups        []Group `json:"groups"`
	Error         string  `json:"error,omitempty"`
}

// LoginResult reports how a login attempt ended. A failed attempt is data,
// not an error; errors are reserved for the page not behaving like a login
// page at all.
type LoginResult struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
	Error   string `json:"error,omitempty"`
}

// SemesterResult reports the semester selection outcome. Selected carries the
// verified dropdown text when verification succeeded, otherwise the requested
// term.
type SemesterResult struct {
	Success  bool   `json:"success"`
	Selected string `json:"selected"`
}
