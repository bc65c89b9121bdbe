package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tbb-digital/portal/pkg/models"
	"github.com/tbb-digital/portal/pkg/pgstore"
	"github.com/tbb-digital/portal/pkg/service"
)

type App interface {
	Login(ctx context.Context, req models.LoginRequest) (models.TokenResponse, error)
	ParseToken(accessToken string) (*models.Claims, error)
	Profile(ctx context.Context, userID int) (models.User, error)
	ChangePassword(ctx context.Context, userID int, password string) error

	GoogleAuthURL(userID int) string
	ConnectCalendar(ctx context.Context, userID int, code string) error
	Availability(ctx context.Context) (service.Availability, error)
	BookMeeting(ctx context.Context, requesterID int, req models.MeetingRequest) (models.Meeting, error)
	GetMeeting(ctx context.Context, userID, meetingID int) (models.Meeting, error)
	MeetingsForUser(ctx context.Context, userID int) ([]models.Meeting, error)

	AskQuestion(ctx context.Context, requesterID int, req models.QuestionRequest) (models.Question, error)
	QuestionsForUser(ctx context.Context, userID int) ([]models.Question, error)
	GetQuestion(ctx context.Context, userID, questionID int) (models.Question, error)
	ReplyToQuestion(ctx context.Context, userID, questionID int, req models.MessageRequest) (models.Message, error)
	UpdateQuestionStatus(ctx context.Context, questionID int, status models.QuestionStatus) error

	CreateProject(ctx context.Context, creatorID int, req models.ProjectRequest) (models.Project, error)
	Projects(ctx context.Context) ([]models.Project, error)
	AddStaffToProject(ctx context.Context, projectID, staffID int) error
	InviteClient(ctx context.Context, projectID, inviterID int, req models.InviteClientRequest) (models.Invitation, error)
}

func (s *Server) versionHandler(w http.ResponseWriter, _ *http.Request) {
	_, err := fmt.Fprintf(w, "%s\n", s.version)
	if err != nil {
		s.log.Warnf("err during writing to connection: %v", err)
	}
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeResponse(w, http.StatusBadRequest, err)
		return
	}
	token, err := s.app.Login(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeResponse(w, http.StatusOK, token)
}

func (s *Server) profileHandler(w http.ResponseWriter, r *http.Request) {
	claims := s.getClaims(r.Context())
	user, err := s.app.Profile(r.Context(), claims.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeResponse(w, http.StatusOK, user)
}

func (s *Server) changePasswordHandler(w http.ResponseWriter, r *http.Request) {
	claims := s.getClaims(r.Context())
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeResponse(w, http.StatusBadRequest, err)
		return
	}
	if err := s.app.ChangePassword(r.Context(), claims.UserID, req.Password); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeResponse(w, http.StatusOK, map[string]string{"message": "password updated"})
}

func (s *Server) googleConnectHandler(w http.ResponseWriter, r *http.Request) {
	claims := s.getClaims(r.Context())
	if claims.Role != models.RoleAdmin {
		s.writeResponse(w, http.StatusForbidden, errors.New("only the admin can connect the calendar"))
		return
	}
	s.writeResponse(w, http.StatusOK, map[string]string{"url": s.app.GoogleAuthURL(claims.UserID)})
}

func (s *Server) googleCallbackHandler(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		s.writeResponse(w, http.StatusBadRequest, errors.New("missing code or state"))
		return
	}
	userID, err := strconv.Atoi(state)
	if err != nil {
		s.writeResponse(w, http.StatusBadRequest, errors.New("invalid state"))
		return
	}
	if err = s.app.ConnectCalendar(r.Context(), userID, code); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeResponse(w, http.StatusOK, map[string]string{"message": "calendar connected"})
}

func (s *Server) freeBusyHandler(w http.ResponseWriter, r *http.Request) {
	availability, err := s.app.Availability(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeResponse(w, http.StatusOK, availability)
}

func (s *Server) bookMeetingHandler(w http.ResponseWriter, r *http.Request) {
	claims := s.getClaims(r.Context())
	var req models.MeetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeResponse(w, http.StatusBadRequest, err)
		return
	}
	meeting, err := s.app.BookMeeting(r.Context(), claims.UserID, req)
	if err != nil {
		s.log.Warnf("err during booking: %v", err)
		s.writeError(w, err)
		return
	}
	s.writeResponse(w, http.StatusCreated, meeting)
}

func (s *Server) getMeetingsHandler(w http.ResponseWriter, r *http.Request) {
	claims := s.getClaims(r.Context())
	meetings, err := s.app.MeetingsForUser(r.Context(), claims.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeResponse(w, http.StatusOK, meetings)
}

func (s *Server) getMeetingHandler(w http.ResponseWriter, r *http.Request) {
	claims := s.getClaims(r.Context())
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		s.writeResponse(w, http.StatusBadRequest, err)
		return
	}
	meeting, err := s.app.GetMeeting(r.Context(), claims.UserID, id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeResponse(w, http.StatusOK, meeting)
}

func (s *Server) askQuestionHandler(w http.ResponseWriter, r *http.Request) {
	claims := s.getClaims(r.Context())
	var req models.QuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeResponse(w, http.StatusBadRequest, err)
		return
	}
	question, err := s.app.AskQuestion(r.Context(), claims.UserID, req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeResponse(w, http.StatusCreated, question)
}

func (s *Server) getQuestionsHandler(w http.ResponseWriter, r *http.Request) {
	claims := s.getClaims(r.Context())
	questions, err := s.app.QuestionsForUser(r.Context(), claims.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeResponse(w, http.StatusOK, questions)
}

func (s *Server) getQuestionHandler(w http.ResponseWriter, r *http.Request) {
	claims := s.getClaims(r.Context())
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		s.writeResponse(w, http.StatusBadRequest, err)
		return
	}
	question, err := s.app.GetQuestion(r.Context(), claims.UserID, id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeResponse(w, http.StatusOK, question)
}

func (s *Server) replyHandler(w http.ResponseWriter, r *http.Request) {
	claims := s.getClaims(r.Context())
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		s.writeResponse(w, http.StatusBadRequest, err)
		return
	}
	var req models.MessageRequest
	if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeResponse(w, http.StatusBadRequest, err)
		return
	}
	message, err := s.app.ReplyToQuestion(r.Context(), claims.UserID, id, req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeResponse(w, http.StatusCreated, message)
}

func (s *Server) questionStatusHandler(w http.ResponseWriter, r *http.Request) {
	claims := s.getClaims(r.Context())
	if claims.Role == models.RoleClient {
		s.writeResponse(w, http.StatusForbidden, errors.New("only staff can change question status"))
		return
	}
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		s.writeResponse(w, http.StatusBadRequest, err)
		return
	}
	var req struct {
		Status models.QuestionStatus `json:"status"`
	}
	if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeResponse(w, http.StatusBadRequest, err)
		return
	}
	if err = s.app.UpdateQuestionStatus(r.Context(), id, req.Status); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeResponse(w, http.StatusOK, map[string]string{"status": string(req.Status)})
}

func (s *Server) createProjectHandler(w http.ResponseWriter, r *http.Request) {
	claims := s.getClaims(r.Context())
	var req models.ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeResponse(w, http.StatusBadRequest, err)
		return
	}
	project, err := s.app.CreateProject(r.Context(), claims.UserID, req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeResponse(w, http.StatusCreated, project)
}

func (s *Server) getProjectsHandler(w http.ResponseWriter, r *http.Request) {
	projects, err := s.app.Projects(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeResponse(w, http.StatusOK, projects)
}

func (s *Server) addStaffHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		s.writeResponse(w, http.StatusBadRequest, err)
		return
	}
	var req struct {
		StaffID int `json:"staffId"`
	}
	if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeResponse(w, http.StatusBadRequest, err)
		return
	}
	if err = s.app.AddStaffToProject(r.Context(), id, req.StaffID); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeResponse(w, http.StatusOK, map[string]string{"message": "staff added"})
}

func (s *Server) inviteClientHandler(w http.ResponseWriter, r *http.Request) {
	claims := s.getClaims(r.Context())
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		s.writeResponse(w, http.StatusBadRequest, err)
		return
	}
	var req models.InviteClientRequest
	if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeResponse(w, http.StatusBadRequest, err)
		return
	}
	invitation, err := s.app.InviteClient(r.Context(), id, claims.UserID, req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeResponse(w, http.StatusCreated, invitation)
}

// writeError maps the service error taxonomy onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		s.writeResponse(w, http.StatusBadRequest, err)
	case errors.Is(err, models.ErrInvalidCredentials):
		s.writeResponse(w, http.StatusUnauthorized, err)
	case errors.Is(err, models.ErrCalendarNotConnected), errors.Is(err, models.ErrReauthRequired):
		s.writeResponse(w, http.StatusUnauthorized, err)
	case errors.Is(err, models.ErrProviderUnavailable):
		s.writeResponse(w, http.StatusBadGateway, err)
	case errors.Is(err, pgstore.ErrUserNotFound),
		errors.Is(err, pgstore.ErrMeetingNotFound),
		errors.Is(err, pgstore.ErrProjectNotFound),
		errors.Is(err, pgstore.ErrQuestionNotFound):
		s.writeResponse(w, http.StatusNotFound, err)
	default:
		s.log.Warnf("internal error: %v", err)
		s.writeResponse(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) writeResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if x, ok := data.(error); ok {
		if err := json.NewEncoder(w).Encode(ErrorResponse{Error: x.Error()}); err != nil {
			s.log.Warnf("err during encoding error: %v", err)
		}
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Warnf("err during encoding response: %v", err)
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
}
