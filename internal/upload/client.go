// Package upload is the resource client for company files.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/utafrali/salesonboard/internal/domain"
	"github.com/utafrali/salesonboard/internal/event"
	apperrors "github.com/utafrali/salesonboard/pkg/errors"
	"github.com/utafrali/salesonboard/pkg/httpclient"
)

// Option configures a Client.
type Option func(*Client)

// WithConcurrency caps parallel uploads in UploadBulk. Values <= 1 keep
// uploads sequential.
func WithConcurrency(n int) Option {
	return func(c *Client) { c.concurrency = n }
}

// Client uploads, reclassifies and deletes files.
type Client struct {
	api         *httpclient.Client
	tokens      httpclient.TokenSource
	events      *event.Producer
	logger      *slog.Logger
	concurrency int
}

// NewClient creates an upload client. tokens is consulted before every
// upload so a signed-out CLI fails without touching the network.
func NewClient(api *httpclient.Client, tokens httpclient.TokenSource, events *event.Producer, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{api: api, tokens: tokens, events: events, logger: logger, concurrency: 1}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the upload route for companyID, or the admin route when
// no company is known yet.
func Endpoint(companyID string) string {
	if companyID == "" {
		return "/admin/upload"
	}
	return "/companies/" + url.PathEscape(companyID) + "/upload"
}

// UploadSingle sends one file as multipart/form-data with the parts file,
// type and then every extra field.
func (c *Client) UploadSingle(ctx context.Context, file domain.UploadFile, kind domain.FileKind, companyID string, extra map[string]string) (*domain.UploadResponse, error) {
	if !kind.Valid() {
		return nil, apperrors.Validation("Invalid upload type", map[string]string{
			"type": "must be one of image, video, document",
		})
	}
	if !c.hasToken(ctx) {
		return nil, apperrors.AuthRequired()
	}

	body, contentType, err := encodeForm(file, kind, extra)
	if err != nil {
		return nil, err
	}

	resp, err := httpclient.Send[domain.UploadResponse](ctx, c.api, httpclient.Request{
		Method:       http.MethodPost,
		Endpoint:     Endpoint(companyID),
		RawBody:      body,
		ContentType:  contentType,
		RequiresAuth: true,
		Operation:    "upload.single",
	}).Unwrap()
	if err != nil {
		return nil, err
	}

	c.events.DocumentUploaded(ctx, companyID, kind, resp)
	return resp, nil
}

// UploadBulk uploads every file and reports successes and failures
// separately. One bad file never stops the others. Results keep input order
// even when uploads run in parallel.
func (c *Client) UploadBulk(ctx context.Context, files []domain.UploadFile, kind domain.FileKind, companyID string, extra map[string]string) *domain.BulkUploadResponse {
	type outcome struct {
		resp *domain.UploadResponse
		err  error
	}
	outcomes := make([]outcome, len(files))

	if c.concurrency <= 1 {
		for i, f := range files {
			outcomes[i].resp, outcomes[i].err = c.UploadSingle(ctx, f, kind, companyID, extra)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(c.concurrency)
		for i, f := range files {
			g.Go(func() error {
				outcomes[i].resp, outcomes[i].err = c.UploadSingle(ctx, f, kind, companyID, extra)
				return nil
			})
		}
		_ = g.Wait()
	}

	result := &domain.BulkUploadResponse{
		Uploaded: []domain.UploadResponse{},
		Failed:   []domain.UploadFailure{},
	}
	for i, o := range outcomes {
		if o.err != nil {
			msg := apperrors.MessageOf(o.err)
			if msg == "" {
				msg = "Upload failed"
			}
			result.Failed = append(result.Failed, domain.UploadFailure{File: files[i].DisplayName(), Error: msg})
			c.logger.DebugContext(ctx, "file upload failed",
				slog.String("file", files[i].DisplayName()),
				slog.String("code", apperrors.CodeOf(o.err)),
			)
			continue
		}
		result.Uploaded = append(result.Uploaded, *o.resp)
	}
	return result
}

// DeleteCompanyFile removes a file. It returns true on success.
func (c *Client) DeleteCompanyFile(ctx context.Context, companyID, fileID string) (bool, error) {
	res := c.api.Do(ctx, httpclient.Request{
		Method:       http.MethodDelete,
		Endpoint:     fileEndpoint(companyID, fileID),
		RequiresAuth: true,
		Operation:    "upload.delete",
	})
	if res.Err != nil {
		return false, res.Err
	}
	c.events.DocumentDeleted(ctx, companyID, fileID)
	return true, nil
}

// UpdateCompanyFile changes file metadata, such as the document type,
// without re-sending the bytes.
func (c *Client) UpdateCompanyFile(ctx context.Context, companyID, fileID string, fields map[string]string) (*domain.Document, error) {
	raw, err := httpclient.Send[json.RawMessage](ctx, c.api, httpclient.Request{
		Method:       http.MethodPut,
		Endpoint:     fileEndpoint(companyID, fileID),
		Body:         fields,
		RequiresAuth: true,
		Operation:    "upload.update",
	}).Unwrap()
	if err != nil {
		return nil, err
	}

	var doc domain.Document
	if err := httpclient.DecodeWrapped(*raw, "document", &doc); err != nil {
		return nil, err
	}
	c.events.DocumentUpdated(ctx, companyID, fileID, fields)
	return &doc, nil
}

func (c *Client) hasToken(ctx context.Context) bool {
	if c.tokens == nil {
		return false
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "read auth token", slog.String("error", err.Error()))
		return false
	}
	return token != ""
}

func fileEndpoint(companyID, fileID string) string {
	return "/companies/" + url.PathEscape(companyID) + "/upload/" + url.PathEscape(fileID)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encodeForm builds the multipart body. The returned content type carries
// the writer's boundary.
func encodeForm(file domain.UploadFile, kind domain.FileKind, extra map[string]string) (io.Reader, string, error) {
	src, err := file.Open()
	if err != nil {
		return nil, "", apperrors.Unknown(fmt.Errorf("open %s: %w", file.DisplayName(), err))
	}
	defer func() { _ = src.Close() }()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(file.PartName())))
	h.Set("Content-Type", file.ContentType())
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", apperrors.Unknown(err)
	}
	if _, err := io.Copy(part, src); err != nil {
		return nil, "", apperrors.Unknown(fmt.Errorf("read %s: %w", file.DisplayName(), err))
	}

	if err := w.WriteField("type", string(kind)); err != nil {
		return nil, "", apperrors.Unknown(err)
	}
	for _, k := range slices.Sorted(maps.Keys(extra)) {
		if err := w.WriteField(k, extra[k]); err != nil {
			return nil, "", apperrors.Unknown(err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", apperrors.Unknown(err)
	}
	return &buf, w.FormDataContentType(), nil
}
