package services

import (
	"context"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"greendrake/estates/internal/models"
	"greendrake/estates/internal/policy"
	"greendrake/estates/internal/store"
	"greendrake/estates/internal/tasks"
	"greendrake/estates/internal/validation"
)

// ITaskEnqueuer is the part of the asynq client the services use.
type ITaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type IEnquiryService interface {
	Create(ctx context.Context, actor *policy.Actor, in validation.Enquiry) (*models.Enquiry, error)
	ListSent(ctx context.Context, actor *policy.Actor) ([]models.EnquiryView, error)
	ListReceived(ctx context.Context, actor *policy.Actor) ([]models.EnquiryView, error)
	Get(ctx context.Context, actor *policy.Actor, id primitive.ObjectID) (*models.EnquiryView, error)
	MarkRead(ctx context.Context, actor *policy.Actor, id primitive.ObjectID) (*models.Enquiry, error)
	AppendMessage(ctx context.Context, actor *policy.Actor, id primitive.ObjectID, in validation.Message) (*models.Enquiry, error)
	Delete(ctx context.Context, actor *policy.Actor, id primitive.ObjectID) error
}

type enquiryService struct {
	enquiries  store.IEnquiryStore
	properties store.IPropertyStore
	users      store.IUserStore
	taskClient ITaskEnqueuer
	logger     *zap.Logger
	now        func() time.Time
}

func NewEnquiryService(enquiries store.IEnquiryStore, properties store.IPropertyStore, users store.IUserStore, taskClient ITaskEnqueuer, logger *zap.Logger) IEnquiryService {
	return &enquiryService{
		enquiries:  enquiries,
		properties: properties,
		users:      users,
		taskClient: taskClient,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func forbidden(d policy.Decision) error {
	if d.Allowed {
		return nil
	}
	return &ForbiddenError{Reason: d.Reason}
}

// Create records an enquiry addressed to the property's agent as of now. Properties without an
// agent still accept enquiries; they simply have no recipient.
func (s *enquiryService) Create(ctx context.Context, actor *policy.Actor, in validation.Enquiry) (*models.Enquiry, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	in.PropertyID = strings.TrimSpace(in.PropertyID)
	in.Message = strings.TrimSpace(in.Message)
	if err := validation.ValidateEnquiry(in); err != nil {
		return nil, err
	}

	propertyID, err := models.ParseID(in.PropertyID)
	if err != nil {
		return nil, ErrNotFound
	}
	property, err := s.properties.FindByID(ctx, propertyID)
	if err != nil {
		return nil, notFound(err)
	}

	var recipient *primitive.ObjectID
	if property.Agent != nil {
		agent := *property.Agent
		recipient = &agent
	}

	enquiry, err := s.enquiries.Create(ctx, &models.Enquiry{
		Property:       property.ID,
		Sender:         actor.ID,
		RecipientAgent: recipient,
		Message:        in.Message,
		Status:         models.EnquiryStatusSent,
	})
	if err != nil {
		return nil, err
	}

	if recipient != nil {
		s.enqueueNotification(ctx, enquiry.ID)
	}
	return enquiry, nil
}

// enqueueNotification never fails the caller; a lost notification only costs an email.
func (s *enquiryService) enqueueNotification(ctx context.Context, id primitive.ObjectID) {
	task, err := tasks.NewEnquiryNotifyTask(id)
	if err == nil {
		_, err = s.taskClient.EnqueueContext(ctx, task)
	}
	if err != nil {
		s.logger.Warn("failed to enqueue enquiry notification", zap.String("enquiry", id.Hex()), zap.Error(err))
	}
}

func (s *enquiryService) ListSent(ctx context.Context, actor *policy.Actor) ([]models.EnquiryView, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	list, err := s.enquiries.FindBySender(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, list, false, true)
}

func (s *enquiryService) ListReceived(ctx context.Context, actor *policy.Actor) ([]models.EnquiryView, error) {
	if err := forbidden(policy.CanReceiveEnquiries(actor)); err != nil {
		return nil, err
	}
	list, err := s.enquiries.FindByRecipient(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, list, true, false)
}

// views resolves property summaries and the requested parties' contacts for each enquiry.
func (s *enquiryService) views(ctx context.Context, list []models.Enquiry, withSender, withRecipient bool) ([]models.EnquiryView, error) {
	propertyIDs := make([]primitive.ObjectID, 0, len(list))
	userIDs := make([]primitive.ObjectID, 0, len(list))
	for _, e := range list {
		propertyIDs = append(propertyIDs, e.Property)
		if withSender {
			userIDs = append(userIDs, e.Sender)
		}
		if withRecipient && e.RecipientAgent != nil {
			userIDs = append(userIDs, *e.RecipientAgent)
		}
	}

	properties, err := s.properties.FindByIDs(ctx, propertyIDs)
	if err != nil {
		return nil, err
	}
	users, err := s.users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	propertyByID := make(map[primitive.ObjectID]*models.PropertySummary, len(properties))
	for i := range properties {
		propertyByID[properties[i].ID] = properties[i].Summary()
	}
	userByID := make(map[primitive.ObjectID]*models.UserContact, len(users))
	for i := range users {
		userByID[users[i].ID] = users[i].Contact()
	}

	views := make([]models.EnquiryView, 0, len(list))
	for _, e := range list {
		v := models.EnquiryView{
			ID:           e.ID,
			Property:     propertyByID[e.Property],
			Message:      e.Message,
			Status:       e.Status,
			Conversation: e.Conversation,
			CreatedAt:    e.CreatedAt,
			UpdatedAt:    e.UpdatedAt,
			ReadAt:       e.ReadAt,
			RepliedAt:    e.RepliedAt,
		}
		if withSender {
			v.Sender = userByID[e.Sender]
		}
		if withRecipient && e.RecipientAgent != nil {
			v.RecipientAgent = userByID[*e.RecipientAgent]
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *enquiryService) find(ctx context.Context, id primitive.ObjectID) (*models.Enquiry, error) {
	enquiry, err := s.enquiries.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return enquiry, nil
}

// Get returns the enquiry with both parties resolved.
func (s *enquiryService) Get(ctx context.Context, actor *policy.Actor, id primitive.ObjectID) (*models.EnquiryView, error) {
	enquiry, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := forbidden(policy.CanViewEnquiry(actor, enquiry)); err != nil {
		return nil, err
	}

	views, err := s.views(ctx, []models.Enquiry{*enquiry}, true, true)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// MarkRead is idempotent: read or replied enquiries are returned unchanged.
func (s *enquiryService) MarkRead(ctx context.Context, actor *policy.Actor, id primitive.ObjectID) (*models.Enquiry, error) {
	enquiry, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := forbidden(policy.CanMarkEnquiryRead(actor, enquiry)); err != nil {
		return nil, err
	}

	changed, err := s.enquiries.MarkRead(ctx, id, s.now())
	if err != nil {
		return nil, err
	}
	if !changed {
		return enquiry, nil
	}
	return s.find(ctx, id)
}

// AppendMessage adds to the conversation. A message from the recipient agent marks the enquiry replied.
func (s *enquiryService) AppendMessage(ctx context.Context, actor *policy.Actor, id primitive.ObjectID, in validation.Message) (*models.Enquiry, error) {
	enquiry, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := forbidden(policy.CanAppendToEnquiry(actor, enquiry)); err != nil {
		return nil, err
	}
	in.Text = strings.TrimSpace(in.Text)
	if err := validation.ValidateMessage(in); err != nil {
		return nil, err
	}

	msg := models.ConversationMessage{Sender: actor.ID, Text: in.Text, CreatedAt: s.now()}
	updated, err := s.enquiries.AppendMessage(ctx, id, msg, enquiry.IsRecipient(actor.ID))
	if err != nil {
		return nil, notFound(err)
	}
	return updated, nil
}

func (s *enquiryService) Delete(ctx context.Context, actor *policy.Actor, id primitive.ObjectID) error {
	enquiry, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := forbidden(policy.CanDeleteEnquiry(actor, enquiry)); err != nil {
		return err
	}
	if err := s.enquiries.SoftDelete(ctx, id); err != nil {
		return notFound(err)
	}
	s.logger.Info("enquiry deleted", zap.String("enquiry", id.Hex()), zap.String("by", actor.ID.Hex()))
	return nil
}
