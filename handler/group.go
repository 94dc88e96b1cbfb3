package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sodiqardianto/edlink-scrap/common/services"
	"github.com/sodiqardianto/edlink-scrap/common/utils"
	"github.com/sodiqardianto/edlink-scrap/repository"
)

type GroupHandler struct {
	courses services.CourseService
	router  *chi.Mux
}

func NewGroupHandler(courses services.CourseService) *GroupHandler {
	h := &GroupHandler{
		courses: courses,
	}

	r := chi.NewRouter()
	r.Get("/{groupID}/members", h.handleListMembers)

	h.router = r
	return h
}

func (h *GroupHandler) Router() *chi.Mux {
	return h.router
}

func (h *GroupHandler) handleListMembers(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")

	members, err := h.courses.ListMembers(r.Context(), groupID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to list members")
		return
	}
	if members == nil {
		members = []repository.Member{}
	}

	utils.WriteJSON(w, http.StatusOK, members)
}
