// Package companies is the resource client for company records.
package companies

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/utafrali/salesonboard/internal/domain"
	"github.com/utafrali/salesonboard/internal/event"
	apperrors "github.com/utafrali/salesonboard/pkg/errors"
	"github.com/utafrali/salesonboard/pkg/httpclient"
	"github.com/utafrali/salesonboard/pkg/pagination"
	"github.com/utafrali/salesonboard/pkg/validator"
)

// ListParams filters GET /companies. Zero fields are omitted.
type ListParams struct {
	pagination.Params
	Search string
	Status domain.CompanyStatus
	UserID string
}

// Query encodes the params. Search is trimmed and dropped when empty.
func (p ListParams) Query() url.Values {
	q := url.Values{}
	p.Params.Apply(q)
	if s := strings.TrimSpace(p.Search); s != "" {
		q.Set("search", s)
	}
	if p.Status != "" {
		q.Set("status", string(p.Status))
	}
	if p.UserID != "" {
		q.Set("user_id", p.UserID)
	}
	return q
}

// Client calls the companies endpoints. Every error it returns is an
// *errors.AppError carrying the server's code and message.
type Client struct {
	api    *httpclient.Client
	events *event.Producer
	logger *slog.Logger
}

// NewClient creates a companies client. events may be nil.
func NewClient(api *httpclient.Client, events *event.Producer, logger *slog.Logger) *Client {
	return &Client{api: api, events: events, logger: logger}
}

// Create validates req, then creates the company and its initial admin user.
func (c *Client) Create(ctx context.Context, req *domain.CreateCompanyRequest) (*domain.CreateCompanyResponse, error) {
	if err := validator.Validate(req); err != nil {
		return nil, validationError(err)
	}

	resp, err := httpclient.Send[domain.CreateCompanyResponse](ctx, c.api, httpclient.Request{
		Method:       http.MethodPost,
		Endpoint:     "/companies",
		Body:         req,
		RequiresAuth: true,
		Operation:    "companies.create",
	}).Unwrap()
	if err != nil {
		c.logger.DebugContext(ctx, "create company failed",
			slog.String("code", apperrors.CodeOf(err)),
			slog.String("email", req.Email),
		)
		return nil, err
	}

	c.events.CompanyCreated(ctx, resp)
	return resp, nil
}

// GetAll fetches one page of the salesman's companies. HasMore is derived
// from the returned row count against the requested limit.
func (c *Client) GetAll(ctx context.Context, params ListParams) (*domain.CompanyList, error) {
	endpoint := "/companies"
	if q := params.Query().Encode(); q != "" {
		endpoint += "?" + q
	}

	list, err := httpclient.Send[domain.CompanyList](ctx, c.api, httpclient.Request{
		Method:       http.MethodGet,
		Endpoint:     endpoint,
		RequiresAuth: true,
		Operation:    "companies.list",
	}).Unwrap()
	if err != nil {
		return nil, err
	}

	if params.Limit > 0 {
		list.Limit = params.Limit
	}
	// The page asked for wins over the echoed one; some backends always
	// report page 1.
	if params.Page > 0 {
		list.Page = params.Page
	} else if list.Page == 0 {
		list.Page = 1
	}
	list.HasMore = pagination.HasMore(len(list.Companies), list.Limit)
	return list, nil
}

// GetByID fetches the basic company record.
func (c *Client) GetByID(ctx context.Context, companyID string) (*domain.Company, error) {
	return c.getCompany(ctx, "/companies/"+url.PathEscape(companyID), "companies.get")
}

// GetDetails fetches the company with users and documents. Backends without
// the details route are served by GetByID instead; every other error is
// returned unchanged.
func (c *Client) GetDetails(ctx context.Context, companyID string) (*domain.Company, error) {
	company, err := c.getCompany(ctx, "/companies/"+url.PathEscape(companyID)+"/details", "companies.details")
	if err == nil {
		return company, nil
	}
	if !IsMissingDetailsRoute(err) {
		return nil, err
	}
	c.logger.DebugContext(ctx, "details route unavailable, falling back",
		slog.String("company_id", companyID),
		slog.String("message", apperrors.MessageOf(err)),
	)
	return c.GetByID(ctx, companyID)
}

// IsMissingDetailsRoute reports whether err means the backend has no
// details route, as opposed to the company not existing.
func IsMissingDetailsRoute(err error) bool {
	switch apperrors.CodeOf(err) {
	case apperrors.CodeNotFound, apperrors.CodeRouteNotFound, apperrors.HTTPCode(http.StatusNotFound):
	default:
		return false
	}
	msg := apperrors.MessageOf(err)
	return strings.Contains(msg, "Route GET") ||
		strings.Contains(msg, "/details") ||
		strings.Contains(msg, "Cannot GET")
}

// Update changes the given company fields. Nil fields are not sent.
func (c *Client) Update(ctx context.Context, companyID string, req *domain.UpdateCompanyRequest) (*domain.Company, error) {
	company, err := c.putCompany(ctx, "/companies/"+url.PathEscape(companyID), req, "companies.update")
	if err != nil {
		return nil, err
	}
	c.events.CompanyUpdated(ctx, companyID, "", setFields(req))
	return company, nil
}

// UpdateCompanyUser changes fields of one of the company's users.
func (c *Client) UpdateCompanyUser(ctx context.Context, companyID, userID string, req *domain.UpdateCompanyUserRequest) (*domain.AdminUser, error) {
	raw, err := httpclient.Send[json.RawMessage](ctx, c.api, httpclient.Request{
		Method:       http.MethodPut,
		Endpoint:     "/companies/" + url.PathEscape(companyID) + "/users/" + url.PathEscape(userID),
		Body:         req,
		RequiresAuth: true,
		Operation:    "companies.update_user",
	}).Unwrap()
	if err != nil {
		return nil, err
	}

	var user domain.AdminUser
	if err := httpclient.DecodeWrapped(*raw, "user", &user); err != nil {
		return nil, err
	}
	c.events.CompanyUpdated(ctx, companyID, userID, setFields(req))
	return &user, nil
}

func (c *Client) getCompany(ctx context.Context, endpoint, operation string) (*domain.Company, error) {
	raw, err := httpclient.Send[json.RawMessage](ctx, c.api, httpclient.Request{
		Method:       http.MethodGet,
		Endpoint:     endpoint,
		RequiresAuth: true,
		Operation:    operation,
	}).Unwrap()
	if err != nil {
		return nil, err
	}
	var company domain.Company
	if err := httpclient.DecodeWrapped(*raw, "company", &company); err != nil {
		return nil, err
	}
	return &company, nil
}

func (c *Client) putCompany(ctx context.Context, endpoint string, body any, operation string) (*domain.Company, error) {
	raw, err := httpclient.Send[json.RawMessage](ctx, c.api, httpclient.Request{
		Method:       http.MethodPut,
		Endpoint:     endpoint,
		Body:         body,
		RequiresAuth: true,
		Operation:    operation,
	}).Unwrap()
	if err != nil {
		return nil, err
	}
	var company domain.Company
	if err := httpclient.DecodeWrapped(*raw, "company", &company); err != nil {
		return nil, err
	}
	return &company, nil
}
