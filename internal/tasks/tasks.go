package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"time"

	"github.com/hibiken/asynq"
	"github.com/nfnt/resize"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"greendrake/estates/internal/config"
	"greendrake/estates/internal/email"
	"greendrake/estates/internal/models"
	"greendrake/estates/internal/storage"
	"greendrake/estates/internal/store"
)

const (
	TypeEnquiryNotify = "enquiry:notify"
	TypeImageProcess  = "image:process"

	QueueDefault = "default"
	QueueImages  = "images"
)

type EnquiryNotifyPayload struct {
	EnquiryID string `json:"enquiry_id"`
}

type ImageProcessPayload struct {
	Key string `json:"key"`
}

// NewEnquiryNotifyTask builds the task that emails the recipient agent about a new enquiry.
func NewEnquiryNotifyTask(enquiryID primitive.ObjectID) (*asynq.Task, error) {
	payload, err := json.Marshal(EnquiryNotifyPayload{EnquiryID: enquiryID.Hex()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeEnquiryNotify, payload, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}

// NewImageProcessTask builds the task that downsizes an uploaded image in place.
func NewImageProcessTask(key string) (*asynq.Task, error) {
	payload, err := json.Marshal(ImageProcessPayload{Key: key})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeImageProcess, payload, asynq.Queue(QueueImages), asynq.MaxRetry(3), asynq.Timeout(2*time.Minute)), nil
}

func redisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}

func NewClient(cfg *config.Config) *asynq.Client {
	return asynq.NewClient(redisOpt(cfg))
}

// TaskProcessor holds the dependencies of the task handlers.
type TaskProcessor struct {
	cfg         *config.Config
	logger      *zap.Logger
	emailSender email.Sender
	storage     storage.IS3Storage
	users       store.IUserStore
	properties  store.IPropertyStore
	enquiries   store.IEnquiryStore
}

func NewTaskProcessor(
	cfg *config.Config,
	logger *zap.Logger,
	emailSender email.Sender,
	storageService storage.IS3Storage,
	users store.IUserStore,
	properties store.IPropertyStore,
	enquiries store.IEnquiryStore,
) *TaskProcessor {
	return &TaskProcessor{
		cfg:         cfg,
		logger:      logger,
		emailSender: emailSender,
		storage:     storageService,
		users:       users,
		properties:  properties,
		enquiries:   enquiries,
	}
}

// SetupServer configures the task server and its handler mux. The caller runs and shuts it down.
func SetupServer(cfg *config.Config, processor *TaskProcessor, logger *zap.Logger) (*asynq.Server, *asynq.ServeMux) {
	srv := asynq.NewServer(
		redisOpt(cfg),
		asynq.Config{
			Queues: map[string]int{
				QueueDefault: 3,
				QueueImages:  2,
			},
			Logger: logger.Sugar(),
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task failed",
					zap.String("type", task.Type()),
					zap.ByteString("payload", task.Payload()),
					zap.Error(err),
				)
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeEnquiryNotify, processor.HandleEnquiryNotifyTask)
	mux.HandleFunc(TypeImageProcess, processor.HandleImageProcessTask)
	return srv, mux
}

// HandleEnquiryNotifyTask emails the recipient agent of an enquiry. Enquiries without a
// reachable agent are acknowledged without sending.
func (p *TaskProcessor) HandleEnquiryNotifyTask(ctx context.Context, t *asynq.Task) error {
	var payload EnquiryNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal enquiry task payload: %v: %w", err, asynq.SkipRetry)
	}
	enquiryID, err := models.ParseID(payload.EnquiryID)
	if err != nil {
		return fmt.Errorf("invalid enquiry ID %q in payload: %w", payload.EnquiryID, asynq.SkipRetry)
	}

	enquiry, err := p.enquiries.FindByID(ctx, enquiryID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			p.logger.Info("enquiry gone before notification", zap.String("enquiry", payload.EnquiryID))
			return nil
		}
		return err
	}
	if enquiry.RecipientAgent == nil {
		return nil
	}

	agent, err := p.users.FindByID(ctx, *enquiry.RecipientAgent)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil
		}
		return err
	}
	if agent.Email == "" {
		p.logger.Debug("agent has no email, skipping notification", zap.String("agent", agent.ID.Hex()))
		return nil
	}

	sender, err := p.users.FindByID(ctx, enquiry.Sender)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}
	propertyTitle := "your listing"
	if property, err := p.properties.FindByID(ctx, enquiry.Property); err == nil {
		propertyTitle = property.Title
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}

	n := email.EnquiryNotification{
		AppName:       p.cfg.AppName,
		AgentName:     agent.Name,
		PropertyTitle: propertyTitle,
		Message:       enquiry.Message,
	}
	if sender != nil {
		n.SenderName = sender.Name
		n.SenderPhone = sender.PhoneNumber
		n.SenderEmail = sender.Email
	}
	subject, body, err := email.RenderEnquiryNotification(n)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	to := []string{agent.Email}
	raw := email.BuildMessage(p.cfg.SmtpFromAddress, to, subject, body, time.Now())
	if err := p.emailSender.Send(ctx, to, subject, raw); err != nil {
		return err
	}

	p.logger.Info("enquiry notification sent",
		zap.String("enquiry", payload.EnquiryID),
		zap.String("agent", agent.ID.Hex()),
	)
	return nil
}

// HandleImageProcessTask downsizes an uploaded image that exceeds ImageMaxDimension and
// writes it back under the same key, so the public URL stays valid.
func (p *TaskProcessor) HandleImageProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ImageProcessPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal image task payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.Key == "" {
		return fmt.Errorf("empty image key: %w", asynq.SkipRetry)
	}

	obj, err := p.storage.Get(ctx, payload.Key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return fmt.Errorf("image %s not found: %w", payload.Key, asynq.SkipRetry)
		}
		return err
	}
	defer obj.Body.Close()

	maxSize := p.cfg.ImageMaxSizeBytes()
	data, err := io.ReadAll(io.LimitReader(obj.Body, maxSize+1))
	if err != nil {
		return fmt.Errorf("failed to read image %s: %w", payload.Key, err)
	}
	if int64(len(data)) > maxSize {
		return fmt.Errorf("image %s exceeds max size: %w", payload.Key, asynq.SkipRetry)
	}

	processed, contentType, changed, err := downsize(data, uint(p.cfg.ImageMaxDimension))
	if err != nil {
		return fmt.Errorf("image %s: %v: %w", payload.Key, err, asynq.SkipRetry)
	}
	if !changed {
		p.logger.Debug("image within limits", zap.String("key", payload.Key))
		return nil
	}

	if err := p.storage.Put(ctx, payload.Key, contentType, bytes.NewReader(processed), int64(len(processed))); err != nil {
		return fmt.Errorf("failed to store processed image: %w", err)
	}
	p.logger.Info("image resized", zap.String("key", payload.Key), zap.Int("bytes", len(processed)))
	return nil
}

// downsize fits a JPEG or PNG within maxDim x maxDim, keeping its format. Other formats, such as
// animated GIFs, are left untouched.
func downsize(data []byte, maxDim uint) ([]byte, string, bool, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", false, fmt.Errorf("unsupported or corrupt image: %w", err)
	}
	if format != "jpeg" && format != "png" {
		return nil, "", false, nil
	}
	if maxDim == 0 || (uint(cfg.Width) <= maxDim && uint(cfg.Height) <= maxDim) {
		return nil, "", false, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", false, fmt.Errorf("corrupt %s image: %w", format, err)
	}
	resized := resize.Thumbnail(maxDim, maxDim, img, resize.Lanczos3)

	var buf bytes.Buffer
	contentType := "image/" + format
	if format == "png" {
		err = png.Encode(&buf, resized)
	} else {
		err = jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85})
	}
	if err != nil {
		return nil, "", false, fmt.Errorf("failed to encode resized image: %w", err)
	}
	return buf.Bytes(), contentType, true, nil
}
