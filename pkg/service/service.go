package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/tbb-digital/portal/internal/google"
	"github.com/tbb-digital/portal/pkg/models"
	"github.com/tbb-digital/portal/pkg/schedule"
)

type Notifier interface {
	MeetingInvitation(ctx context.Context, email, name string, meeting models.Meeting) error
	PortalInvitation(ctx context.Context, email, name, tempPassword string) error
}

type Store interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	GetUser(ctx context.Context, id int) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetCalendarOwner(ctx context.Context) (models.User, error)
	UpdateCalendarToken(ctx context.Context, userID int, accessToken string, expiry time.Time) error
	SaveCalendarCredential(ctx context.Context, userID int, cred models.CalendarCredential) error
	UpdatePassword(ctx context.Context, userID int, passwordHash string) error

	CreateMeeting(ctx context.Context, meeting models.Meeting) (models.Meeting, error)
	GetMeeting(ctx context.Context, id int) (models.Meeting, error)
	MeetingsForUser(ctx context.Context, user models.User) ([]models.Meeting, error)

	CreateProject(ctx context.Context, project models.Project) (models.Project, error)
	GetProject(ctx context.Context, id int) (models.Project, error)
	GetProjects(ctx context.Context) ([]models.Project, error)
	ProjectForClient(ctx context.Context, clientID int) (models.Project, error)
	AddProjectMember(ctx context.Context, projectID, userID int, role models.Role) error
	CreateInvitation(ctx context.Context, inv models.Invitation) (models.Invitation, error)

	CreateQuestion(ctx context.Context, question models.Question) (models.Question, error)
	GetQuestion(ctx context.Context, id int) (models.Question, error)
	QuestionsForUser(ctx context.Context, user models.User) ([]models.Question, error)
	GetMessages(ctx context.Context, questionID int) ([]models.Message, error)
	AddMessage(ctx context.Context, message models.Message) (models.Message, error)
	UpdateQuestionStatus(ctx context.Context, id int, status models.QuestionStatus) error
}

type Calendar interface {
	RefreshAccessToken(ctx context.Context, refreshToken string) (string, time.Duration, error)
	FreeBusy(ctx context.Context, accessToken, calendarID string, timeMin, timeMax time.Time) ([]schedule.BusyInterval, error)
	InsertEvent(ctx context.Context, accessToken, calendarID string, event google.EventRequest) (google.Event, error)
	PrimaryCalendarID(ctx context.Context, accessToken string) string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

type PortalService struct {
	log       *logrus.Entry
	store     Store
	calendar  Calendar
	notifier  Notifier
	validate  *validator.Validate
	jwtSecret []byte
	now       func() time.Time
}

func New(log *logrus.Logger, store Store, calendar Calendar, notifier Notifier, jwtSecret string) *PortalService {
	return &PortalService{
		log:       log.WithField("component", "service"),
		store:     store,
		calendar:  calendar,
		notifier:  notifier,
		validate:  validator.New(),
		jwtSecret: []byte(jwtSecret),
		now:       time.Now,
	}
}
