// Package event publishes onboarding audit events. Publishing is best
// effort: failures are logged and never reach the caller.
package event

import (
	"context"
	"log/slog"

	"github.com/utafrali/salesonboard/internal/domain"
	pkgkafka "github.com/utafrali/salesonboard/pkg/kafka"
)

// Aggregate types.
const (
	AggregateCompany  = "company"
	AggregateDocument = "document"
)

// Event types.
const (
	TypeCompanyCreated   = "company.created"
	TypeCompanyUpdated   = "company.updated"
	TypeDocumentUploaded = "document.uploaded"
	TypeDocumentUpdated  = "document.updated"
	TypeDocumentDeleted  = "document.deleted"
)

// Source identifies events emitted by this client.
const Source = "onboard-cli"

var (
	TopicCompany  = pkgkafka.Topic(AggregateCompany)
	TopicDocument = pkgkafka.Topic(AggregateDocument)
)

// CompanyCreatedData is the payload for a company.created event.
type CompanyCreatedData struct {
	CompanyID   string `json:"company_id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	SalesmanID  string `json:"salesman_id"`
	AdminUserID string `json:"admin_user_id,omitempty"`
}

// CompanyUpdatedData is the payload for a company.updated event.
type CompanyUpdatedData struct {
	CompanyID string   `json:"company_id"`
	UserID    string   `json:"user_id,omitempty"`
	Fields    []string `json:"fields"`
}

// DocumentData is the payload for document events.
type DocumentData struct {
	FileID    string            `json:"file_id"`
	CompanyID string            `json:"company_id,omitempty"`
	Kind      string            `json:"kind,omitempty"`
	URL       string            `json:"url,omitempty"`
	Size      int64             `json:"size,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// Publisher is the seam the resource clients depend on.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer builds and publishes onboarding events.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewProducer creates an event producer. A nil publisher makes every method
// a no-op, which is how the CLI runs without KAFKA_BROKERS.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{publisher: publisher, logger: logger}
}

// Enabled reports whether events are actually published.
func (p *Producer) Enabled() bool {
	return p != nil && p.publisher != nil
}

// CompanyCreated records a newly onboarded company.
func (p *Producer) CompanyCreated(ctx context.Context, resp *domain.CreateCompanyResponse) {
	data := CompanyCreatedData{
		CompanyID:   resp.Company.ID,
		Name:        resp.Company.Name,
		Email:       resp.Company.Email,
		SalesmanID:  resp.SalesmanID,
		AdminUserID: resp.InitialUser.ID,
	}
	p.emit(ctx, TopicCompany, TypeCompanyCreated, resp.Company.ID, AggregateCompany, data)
}

// CompanyUpdated records which fields of a company or its admin user changed.
func (p *Producer) CompanyUpdated(ctx context.Context, companyID, userID string, fields []string) {
	data := CompanyUpdatedData{CompanyID: companyID, UserID: userID, Fields: fields}
	p.emit(ctx, TopicCompany, TypeCompanyUpdated, companyID, AggregateCompany, data)
}

// DocumentUploaded records a stored file.
func (p *Producer) DocumentUploaded(ctx context.Context, companyID string, kind domain.FileKind, resp *domain.UploadResponse) {
	data := DocumentData{FileID: resp.ID, CompanyID: companyID, Kind: string(kind), URL: resp.URL, Size: resp.Size}
	p.emit(ctx, TopicDocument, TypeDocumentUploaded, resp.ID, AggregateDocument, data)
}

// DocumentUpdated records a metadata change.
func (p *Producer) DocumentUpdated(ctx context.Context, companyID, fileID string, fields map[string]string) {
	data := DocumentData{FileID: fileID, CompanyID: companyID, Fields: fields}
	p.emit(ctx, TopicDocument, TypeDocumentUpdated, fileID, AggregateDocument, data)
}

// DocumentDeleted records a removed file.
func (p *Producer) DocumentDeleted(ctx context.Context, companyID, fileID string) {
	data := DocumentData{FileID: fileID, CompanyID: companyID}
	p.emit(ctx, TopicDocument, TypeDocumentDeleted, fileID, AggregateDocument, data)
}

func (p *Producer) emit(ctx context.Context, topic, eventType, aggregateID, aggregateType string, data any) {
	if !p.Enabled() {
		return
	}
	ev, err := pkgkafka.NewEvent(ctx, eventType, aggregateID, aggregateType, Source, data)
	if err != nil {
		p.logger.WarnContext(ctx, "build event", slog.String("event_type", eventType), slog.String("error", err.Error()))
		return
	}
	if err := p.publisher.Publish(ctx, topic, ev); err != nil {
		p.logger.WarnContext(ctx, "publish event",
			slog.String("event_type", eventType),
			slog.String("aggregate_id", aggregateID),
			slog.String("error", err.Error()),
		)
	}
}
