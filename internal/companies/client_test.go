package companies

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/salesonboard/internal/domain"
	"github.com/utafrali/salesonboard/internal/event"
	apperrors "github.com/utafrali/salesonboard/pkg/errors"
	"github.com/utafrali/salesonboard/pkg/httpclient"
	pkgkafka "github.com/utafrali/salesonboard/pkg/kafka"
	"github.com/utafrali/salesonboard/pkg/logger"
	"github.com/utafrali/salesonboard/pkg/pagination"
)

type staticToken string

func (s staticToken) Token(context.Context) (string, error) { return string(s), nil }

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, ev *pkgkafka.Event) error {
	return m.Called(ctx, topic, ev).Error(0)
}

func newTestClient(t *testing.T, mux *http.ServeMux, pub event.Publisher) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	api := httpclient.New(httpclient.Config{BaseURL: srv.URL},
		httpclient.WithTokenSource(staticToken("tok")), httpclient.WithLogger(logger.Discard()))
	return NewClient(api, event.NewProducer(pub, logger.Discard()), logger.Discard())
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func validCreateRequest() *domain.CreateCompanyRequest {
	return &domain.CreateCompanyRequest{
		Name:       "Acme Realty",
		Email:      "info@acme.test",
		Phone:      "+91 98765 43210",
		SalesmanID: "s1",
		InitialUser: domain.InitialUserInput{
			Name:     "Asha",
			Email:    "asha@acme.test",
			Password: "longenough1",
		},
	}
}

func TestListParams_Query(t *testing.T) {
	tests := []struct {
		name   string
		params ListParams
		want   string
	}{
		{"empty", ListParams{}, ""},
		{"page and limit", ListParams{Params: pagination.Params{Page: 2, Limit: 20}}, "limit=20&page=2"},
		{"blank search omitted", ListParams{Search: "   "}, ""},
		{"search trimmed", ListParams{Search: "  acme "}, "search=acme"},
		{"all filters", ListParams{
			Params: pagination.Params{Page: 1, Limit: 10},
			Search: "a b", Status: domain.StatusActive, UserID: "s1",
		}, "limit=10&page=1&search=a+b&status=active&user_id=s1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.params.Query().Encode())
		})
	}
}

func TestCreate_Success(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, event.TopicCompany, mock.Anything).Return(nil).Once()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /companies", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Acme Realty", body["name"])
		assert.Equal(t, "s1", body["salesman_id"])
		initial, _ := body["initial_user"].(map[string]any)
		assert.Equal(t, "longenough1", initial["password"])

		writeJSON(w, http.StatusCreated, `{
			"company": {"id":"c1","name":"Acme Realty","email":"info@acme.test","is_active":true,"created_at":"2024-05-01T10:00:00Z","created_by":"s1"},
			"initial_user": {"id":"u1","name":"Asha","email":"asha@acme.test","role":"admin","password":"longenough1"},
			"salesman_id": "s1"
		}`)
	})
	c := newTestClient(t, mux, pub)

	resp, err := c.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)
	assert.Equal(t, "c1", resp.Company.ID)
	assert.Equal(t, "s1", resp.Company.CreatedBy)
	assert.Equal(t, 2024, resp.Company.CreatedAt.Year())
	assert.Equal(t, "longenough1", resp.InitialUser.Password)
	pub.AssertExpectations(t)
}

func TestCreate_ClientValidationSkipsNetwork(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		t.Error("invalid request must not reach the server")
	})
	c := newTestClient(t, mux, nil)

	req := validCreateRequest()
	req.Email = "not-an-email"
	req.InitialUser.Password = "short"

	_, err := c.Create(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	var fields map[string]string
	require.NoError(t, json.Unmarshal(appErr.Details, &fields))
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "initial_user.password")
}

func TestCreate_ServerErrorKeepsStructure(t *testing.T) {
	for _, code := range []string{"VALIDATION_ERROR", "DUPLICATE_ENTRY", "FORBIDDEN"} {
		t.Run(code, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("POST /companies", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusBadRequest, fmt.Sprintf(`{"error":{"code":%q,"message":"email rejected","details":{"field":"email"}}}`, code))
			})
			c := newTestClient(t, mux, nil)

			_, err := c.Create(context.Background(), validCreateRequest())
			require.Error(t, err)
			assert.Equal(t, code, apperrors.CodeOf(err))
			assert.Equal(t, "email rejected", apperrors.MessageOf(err))
		})
	}
}

func companiesPage(n int) string {
	rows := make([]string, n)
	for i := range rows {
		rows[i] = fmt.Sprintf(`{"id":"c%d","name":"Co %d","email":"c%d@x.test","is_active":true,"created_at":"2024-01-01T00:00:00Z"}`, i, i, i)
	}
	return fmt.Sprintf(`{"companies":[%s],"total":45,"page":1,"limit":20}`, strings.Join(rows, ","))
}

func TestGetAll_HasMoreHeuristic(t *testing.T) {
	tests := []struct {
		returned int
		want     bool
	}{
		{20, true},
		{19, false},
		{0, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d rows", tt.returned), func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("GET /companies", func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "1", r.URL.Query().Get("page"))
				assert.Equal(t, "20", r.URL.Query().Get("limit"))
				writeJSON(w, http.StatusOK, companiesPage(tt.returned))
			})
			c := newTestClient(t, mux, nil)

			list, err := c.GetAll(context.Background(), ListParams{Params: pagination.Params{Page: 1, Limit: 20}})
			require.NoError(t, err)
			assert.Len(t, list.Companies, tt.returned)
			assert.Equal(t, 45, list.Total)
			assert.Equal(t, tt.want, list.HasMore)
		})
	}
}

func TestGetAll_RequestedLimitWins(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /companies", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"companies":[{"id":"a"},{"id":"b"}],"total":9,"page":3,"limit":20}`)
	})
	c := newTestClient(t, mux, nil)

	list, err := c.GetAll(context.Background(), ListParams{Params: pagination.Params{Page: 3, Limit: 2}})
	require.NoError(t, err)
	assert.Equal(t, 2, list.Limit)
	assert.Equal(t, 3, list.Page)
	assert.True(t, list.HasMore)
}

func TestGetAll_RequestedPageWinsOverEcho(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /companies", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "4", r.URL.Query().Get("page"))
		writeJSON(w, http.StatusOK, companiesPage(20))
	})
	c := newTestClient(t, mux, nil)

	list, err := c.GetAll(context.Background(), ListParams{Params: pagination.Params{Page: 4, Limit: 20}})
	require.NoError(t, err)
	assert.Equal(t, 4, list.Page)
}

func TestGetAll_TolerantCreatedAt(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /companies", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"companies":[
			{"id":"a","name":"A","created_at":"2024-01-15 10:30:00"},
			{"id":"b","name":"B","created_at":""},
			{"id":"c","name":"C","created_at":"2024-01-15"}
		],"total":3,"page":1,"limit":20}`)
	})
	c := newTestClient(t, mux, nil)

	list, err := c.GetAll(context.Background(), ListParams{Params: pagination.Params{Page: 1, Limit: 20}})
	require.NoError(t, err)
	require.Len(t, list.Companies, 3)
	assert.Equal(t, 10, list.Companies[0].CreatedAt.Hour())
	assert.True(t, list.Companies[1].CreatedAt.IsZero())
	assert.Equal(t, 15, list.Companies[2].CreatedAt.Day())
}

func TestGetAll_Error(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /companies", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"error":{"code":"UNAUTHORIZED","message":"Token expired"}}`)
	})
	c := newTestClient(t, mux, nil)

	_, err := c.GetAll(context.Background(), ListParams{})
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestGetDetails_Success(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /companies/c1/details", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"company":{"id":"c1","name":"Acme","users":[{"id":"u1","name":"Asha","email":"a@x.test","role":"admin","age":31}],"documents":[{"id":"d1","url":"http://f/d1","mime_type":"image/jpeg","document_type":"PAN Card"}]}}`)
	})
	mux.HandleFunc("GET /companies/c1", func(w http.ResponseWriter, r *http.Request) {
		t.Error("fallback must not be used when details succeed")
	})
	c := newTestClient(t, mux, nil)

	company, err := c.GetDetails(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, company.Users, 1)
	assert.Equal(t, "Asha", company.Admin().Name)
	assert.Equal(t, 31, *company.Users[0].Age)
	assert.Equal(t, "PAN Card", company.Documents[0].DocumentType)
}

func TestGetDetails_FallsBackWhenRouteMissing(t *testing.T) {
	bodies := map[string]struct {
		status int
		body   string
	}{
		"structured route error": {http.StatusNotFound, `{"error":{"code":"NOT_FOUND","message":"Route GET /companies/:id/details not found"}}`},
		"route not found code":   {http.StatusNotFound, `{"error":{"code":"ROUTE_NOT_FOUND","message":"Route GET /api/v1/companies/c1/details does not exist"}}`},
		"express default":        {http.StatusNotFound, `{"message":"Cannot GET /api/v1/companies/c1/details"}`},
	}
	for name, tc := range bodies {
		t.Run(name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("GET /companies/c1/details", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tc.status, tc.body)
			})
			mux.HandleFunc("GET /companies/c1", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, `{"id":"c1","name":"Acme","email":"info@acme.test","is_active":true}`)
			})
			c := newTestClient(t, mux, nil)

			company, err := c.GetDetails(context.Background(), "c1")
			require.NoError(t, err)
			assert.Equal(t, "Acme", company.Name)
		})
	}
}

func TestGetDetails_OtherErrorsPropagate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /companies/c1/details", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"error":{"code":"NOT_FOUND","message":"Company not found"}}`)
	})
	mux.HandleFunc("GET /companies/c1", func(w http.ResponseWriter, r *http.Request) {
		t.Error("fallback must not hide a missing company")
	})
	c := newTestClient(t, mux, nil)

	_, err := c.GetDetails(context.Background(), "c1")
	require.Error(t, err)
	assert.Equal(t, "Company not found", apperrors.MessageOf(err))
}

func TestIsMissingDetailsRoute(t *testing.T) {
	assert.True(t, IsMissingDetailsRoute(apperrors.New("HTTP_404", "Cannot GET /x/details")))
	assert.False(t, IsMissingDetailsRoute(apperrors.New("FORBIDDEN", "Route GET /companies/:id/details forbidden")))
	assert.False(t, IsMissingDetailsRoute(apperrors.New("NOT_FOUND", "Company not found")))
	assert.False(t, IsMissingDetailsRoute(errors.New("Route GET")))
}

func TestUpdate_SendsOnlySetFields(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, event.TopicCompany, mock.MatchedBy(func(ev *pkgkafka.Event) bool {
		var data event.CompanyUpdatedData
		_ = ev.UnmarshalData(&data)
		return assert.ObjectsAreEqual([]string{"name", "team_members"}, data.Fields)
	})).Return(nil).Once()

	mux := http.NewServeMux()
	mux.HandleFunc("PUT /companies/c1", func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"name":"Acme 2","team_members":12}`, string(raw))
		writeJSON(w, http.StatusOK, `{"company":{"id":"c1","name":"Acme 2","team_members":12}}`)
	})
	c := newTestClient(t, mux, pub)

	company, err := c.Update(context.Background(), "c1", &domain.UpdateCompanyRequest{
		Name:        domain.Ptr("Acme 2"),
		TeamMembers: domain.Ptr(12),
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme 2", company.Name)
	assert.Equal(t, 12, *company.TeamMembers)
	pub.AssertExpectations(t)
}

func TestUpdateCompanyUser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /companies/c1/users/u1", func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"age":40,"gender":"Female"}`, string(raw))
		writeJSON(w, http.StatusOK, `{"user":{"id":"u1","name":"Asha","email":"a@x.test","age":40,"gender":"Female"}}`)
	})
	c := newTestClient(t, mux, nil)

	user, err := c.UpdateCompanyUser(context.Background(), "c1", "u1", &domain.UpdateCompanyUserRequest{
		Age:    domain.Ptr(40),
		Gender: domain.Ptr("Female"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Female", user.Gender)
}

func TestUpdate_ErrorPropagates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /companies/c1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, `{"error":{"code":"FORBIDDEN","message":"Not your company"}}`)
	})
	c := newTestClient(t, mux, nil)

	_, err := c.Update(context.Background(), "c1", &domain.UpdateCompanyRequest{Name: domain.Ptr("x")})
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
}

func TestDecodeWrappedCompany(t *testing.T) {
	var c domain.Company
	require.NoError(t, httpclient.DecodeWrapped(json.RawMessage(`{"id":"bare"}`), "company", &c))
	assert.Equal(t, "bare", c.ID)

	require.NoError(t, httpclient.DecodeWrapped(json.RawMessage(`{"company":{"id":"wrapped"}}`), "company", &c))
	assert.Equal(t, "wrapped", c.ID)

	err := httpclient.DecodeWrapped(json.RawMessage(`[1,2]`), "company", &c)
	assert.Equal(t, apperrors.CodeParse, apperrors.CodeOf(err))
}
