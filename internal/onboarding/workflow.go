// Package onboarding runs the create-then-upload and edit workflows a
// salesman goes through when registering a company.
package onboarding

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/utafrali/salesonboard/internal/domain"
	apperrors "github.com/utafrali/salesonboard/pkg/errors"
	"github.com/utafrali/salesonboard/pkg/validator"
)

// SessionExpiredMessage is returned when the workflow runs without a cached user.
const SessionExpiredMessage = "User session expired. Please login again."

// Companies is the part of the companies client the workflows need.
type Companies interface {
	Create(ctx context.Context, req *domain.CreateCompanyRequest) (*domain.CreateCompanyResponse, error)
	Update(ctx context.Context, companyID string, req *domain.UpdateCompanyRequest) (*domain.Company, error)
	UpdateCompanyUser(ctx context.Context, companyID, userID string, req *domain.UpdateCompanyUserRequest) (*domain.AdminUser, error)
}

// Uploader is the part of the upload client the workflows need.
type Uploader interface {
	UploadSingle(ctx context.Context, file domain.UploadFile, kind domain.FileKind, companyID string, extra map[string]string) (*domain.UploadResponse, error)
	UploadBulk(ctx context.Context, files []domain.UploadFile, kind domain.FileKind, companyID string, extra map[string]string) *domain.BulkUploadResponse
}

// Users returns the signed-in salesman, or nil.
type Users interface {
	CurrentUser(ctx context.Context) *domain.User
}

// IdentityDocument is a file picked as identity proof together with its
// classification.
type IdentityDocument struct {
	File domain.UploadFile
	Type domain.DocumentType
}

// Request is the onboarding form.
type Request struct {
	Company   domain.CreateCompanyRequest
	Documents []IdentityDocument
}

// Result is a created company plus the outcome of its document uploads.
type Result struct {
	Company   *domain.CreateCompanyResponse
	Documents *domain.BulkUploadResponse
}

// Partial reports whether the company exists but some documents are missing.
func (r *Result) Partial() bool {
	return r.Documents != nil && len(r.Documents.Failed) > 0
}

// AdminUserInput is the admin-user section of the edit form. Age is free text.
type AdminUserInput struct {
	Name    string
	Email   string
	Phone   string
	Address string
	Age     string
	Gender  string
}

// EditRequest is the edit form. TeamMembers and YearsOfExperience are free
// text and left unchanged when empty.
type EditRequest struct {
	CompanyID         string
	Name              string
	Email             string
	Phone             string
	Address           string
	TeamMembers       string
	YearsOfExperience string
	OfficePhotoURL    string
	IsActive          *bool
	OfficePhoto       *domain.UploadFile
	AdminUserID       string
	AdminUser         *AdminUserInput
	Documents         []IdentityDocument
}

// EditResult is the updated company plus the outcome of new documents.
type EditResult struct {
	Company   *domain.Company
	AdminUser *domain.AdminUser
	Documents *domain.BulkUploadResponse
}

// Workflow runs onboarding and edits against the backend.
type Workflow struct {
	companies Companies
	uploads   Uploader
	users     Users
	logger    *slog.Logger
}

// NewWorkflow creates a workflow.
func NewWorkflow(companies Companies, uploads Uploader, users Users, logger *slog.Logger) *Workflow {
	return &Workflow{companies: companies, uploads: uploads, users: users, logger: logger}
}

// Onboard validates the form, creates the company on behalf of the signed-in
// salesman and uploads its identity documents. Document failures never undo
// the company; they are reported in Result.Documents.
func (w *Workflow) Onboard(ctx context.Context, req Request) (*Result, error) {
	company := req.Company.Trim()
	if fe := validateOnboard(company, req.Documents); len(fe) > 0 {
		return nil, fe
	}

	user := w.users.CurrentUser(ctx)
	if user == nil {
		return nil, apperrors.New(apperrors.CodeAuthRequired, SessionExpiredMessage)
	}
	company.SalesmanID = user.ID

	created, err := w.companies.Create(ctx, &company)
	if err != nil {
		return nil, err
	}

	docs := w.uploadDocuments(ctx, created.Company.ID, req.Documents)
	if len(docs.Failed) > 0 {
		w.logger.WarnContext(ctx, "company created with missing documents",
			slog.String("company_id", created.Company.ID),
			slog.Int("failed", len(docs.Failed)),
		)
	}
	return &Result{Company: created, Documents: docs}, nil
}

// Edit validates the edit form, uploads a new office photo if one was picked,
// updates the company and its admin user, then uploads new documents.
func (w *Workflow) Edit(ctx context.Context, req EditRequest) (*EditResult, error) {
	req = trimEdit(req)
	if fe := validateEdit(req); len(fe) > 0 {
		return nil, fe
	}

	photoURL := req.OfficePhotoURL
	if req.OfficePhoto != nil {
		resp, err := w.uploads.UploadSingle(ctx, *req.OfficePhoto, domain.KindImage, req.CompanyID, nil)
		if err != nil {
			return nil, err
		}
		if resp.URL != "" {
			photoURL = resp.URL
		}
	}

	update := &domain.UpdateCompanyRequest{
		Name:    domain.Ptr(req.Name),
		Email:   domain.Ptr(req.Email),
		Phone:   optional(req.Phone),
		Address: optional(req.Address),
		// Validated above.
		TeamMembers:       atoiOrNil(req.TeamMembers),
		YearsOfExperience: atoiOrNil(req.YearsOfExperience),
		OfficePhotoURL:    optional(photoURL),
		IsActive:          req.IsActive,
	}
	company, err := w.companies.Update(ctx, req.CompanyID, update)
	if err != nil {
		return nil, err
	}

	out := &EditResult{Company: company}
	if req.AdminUserID != "" && req.AdminUser != nil {
		u := req.AdminUser
		out.AdminUser, err = w.companies.UpdateCompanyUser(ctx, req.CompanyID, req.AdminUserID, &domain.UpdateCompanyUserRequest{
			Name:    optional(u.Name),
			Email:   optional(u.Email),
			Phone:   optional(u.Phone),
			Address: optional(u.Address),
			Age:     atoiOrNil(u.Age),
			Gender:  optional(u.Gender),
		})
		if err != nil {
			return nil, err
		}
	}

	out.Documents = w.uploadDocuments(ctx, req.CompanyID, req.Documents)
	return out, nil
}

// uploadDocuments uploads documents grouped by type, in order of each type's
// first appearance, so every batch carries a single document_type field.
func (w *Workflow) uploadDocuments(ctx context.Context, companyID string, docs []IdentityDocument) *domain.BulkUploadResponse {
	out := &domain.BulkUploadResponse{Uploaded: []domain.UploadResponse{}, Failed: []domain.UploadFailure{}}

	var order []domain.DocumentType
	groups := make(map[domain.DocumentType][]domain.UploadFile)
	for _, d := range docs {
		if _, seen := groups[d.Type]; !seen {
			order = append(order, d.Type)
		}
		groups[d.Type] = append(groups[d.Type], d.File)
	}

	for _, t := range order {
		var extra map[string]string
		if t != "" {
			extra = map[string]string{"document_type": string(t)}
		}
		res := w.uploads.UploadBulk(ctx, groups[t], domain.KindDocument, companyID, extra)
		out.Uploaded = append(out.Uploaded, res.Uploaded...)
		out.Failed = append(out.Failed, res.Failed...)
	}
	return out
}

func validateOnboard(c domain.CreateCompanyRequest, docs []IdentityDocument) FieldErrors {
	fe := FieldErrors{}
	fe.set("name", validator.NameError(c.Name))
	fe.set("email", validator.EmailError(c.Email))
	fe.set("phone", validator.PhoneError(c.Phone))
	fe.set("initial_user.name", validator.NameError(c.InitialUser.Name))
	fe.set("initial_user.email", validator.EmailError(c.InitialUser.Email))
	fe.set("initial_user.phone", validator.PhoneError(c.InitialUser.Phone))
	fe.set("initial_user.password", validator.AdminPasswordError(c.InitialUser.Password))
	if len(docs) == 0 {
		fe["identity_proof"] = "Please upload at least one identity proof document"
	}
	for _, d := range docs {
		if msg := validator.DocumentTypeError(string(d.Type)); msg != "" {
			fe["identity_proof"] = msg
			break
		}
	}
	return fe
}

func validateEdit(r EditRequest) FieldErrors {
	fe := FieldErrors{}
	if r.CompanyID == "" {
		fe[FormKey] = "Company not found"
	}
	fe.set("name", validator.NameError(r.Name))
	fe.set("email", validator.EmailError(r.Email))
	fe.set("phone", validator.PhoneError(r.Phone))
	fe.set("team_members", validator.TeamSizeError(r.TeamMembers))
	fe.set("years_of_experience", validator.YearsOfExperienceError(r.YearsOfExperience))
	if u := r.AdminUser; u != nil {
		if u.Email != "" {
			fe.set("admin.email", validator.EmailError(u.Email))
		}
		fe.set("admin.phone", validator.PhoneError(u.Phone))
		fe.set("admin.age", validator.AgeError(u.Age))
		fe.set("admin.gender", validator.GenderError(u.Gender))
	}
	if slices.ContainsFunc(r.Documents, func(d IdentityDocument) bool {
		return validator.DocumentTypeError(string(d.Type)) != ""
	}) {
		fe["identity_proof"] = "Invalid document type"
	}
	return fe
}

func trimEdit(r EditRequest) EditRequest {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Address = strings.TrimSpace(r.Address)
	r.TeamMembers = strings.TrimSpace(r.TeamMembers)
	r.YearsOfExperience = strings.TrimSpace(r.YearsOfExperience)
	if r.AdminUser != nil {
		u := *r.AdminUser
		u.Name = strings.TrimSpace(u.Name)
		u.Email = strings.TrimSpace(u.Email)
		u.Phone = strings.TrimSpace(u.Phone)
		u.Address = strings.TrimSpace(u.Address)
		u.Age = strings.TrimSpace(u.Age)
		r.AdminUser = &u
	}
	return r
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func atoiOrNil(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
