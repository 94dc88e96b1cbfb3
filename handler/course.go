package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/sodiqardianto/edlink-scrap/common/services"
	"github.com/sodiqardianto/edlink-scrap/common/utils"
)

type CourseHandler struct {
	courses services.CourseService
	router  *chi.Mux
}

// NewCourseHandler wires the read/delete endpoints over scraped data.
func NewCourseHandler(courses services.CourseService) *CourseHandler {
	h := &CourseHandler{
		courses: courses,
	}

	r := chi.NewRouter()
	r.Get("/", h.handleListCourses)
	r.Get("/{courseID}", h.handleGetCourse)
	r.Get("/{courseID}/groups", h.handleListGroups)
	r.Delete("/{courseID}", h.handleDeleteCourse)

	h.router = r
	return h
}

func (h *CourseHandler) Router() *chi.Mux {
	return h.router
}

// handleListCourses lists all scraped courses, optionally filtered by term.
func (h *CourseHandler) handleListCourses(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("term")

	courses, err := h.courses.ListCourses(r.Context(), term)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to list courses")
		return
	}
	if courses == nil {
		courses = []services.CourseDetail{}
	}

	utils.WriteJSON(w, http.StatusOK, courses)
}

func (h *CourseHandler) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")

	course, err := h.courses.GetCourse(r.Context(), courseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteError(w, http.StatusNotFound, "Course not found")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "Failed to get course")
		return
	}

	utils.WriteJSON(w, http.StatusOK, course)
}

func (h *CourseHandler) handleListGroups(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")

	groups, err := h.courses.ListGroups(r.Context(), courseID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to list groups")
		return
	}
	if groups == nil {
		groups = []services.GroupDetail{}
	}

	utils.WriteJSON(w, http.StatusOK, groups)
}

func (h *CourseHandler) handleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")

	if err := h.courses.DeleteCourse(r.Context(), courseID); err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to delete course")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "deleted", "id": courseID})
}
