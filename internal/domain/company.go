package domain

import "strings"

// CompanyStatus filters the company list.
type CompanyStatus string

const (
	StatusActive   CompanyStatus = "active"
	StatusInactive CompanyStatus = "inactive"
)

// Valid reports whether s is a known status. The empty status means "all".
func (s CompanyStatus) Valid() bool {
	return s == "" || s == StatusActive || s == StatusInactive
}

// Company is a real-estate company onboarded by a salesman.
type Company struct {
	ID                string      `json:"id"`
	Name              string      `json:"name"`
	Email             string      `json:"email"`
	Phone             string      `json:"phone,omitempty"`
	Address           string      `json:"address,omitempty"`
	TeamMembers       *int        `json:"team_members,omitempty"`
	YearsOfExperience *int        `json:"years_of_experience,omitempty"`
	OfficePhotoURL    string      `json:"office_photo_url,omitempty"`
	IsActive          bool        `json:"is_active"`
	CreatedAt         Timestamp   `json:"created_at"`
	CreatedBy         string      `json:"created_by,omitempty"`
	Users             []AdminUser `json:"users,omitempty"`
	Documents         []Document  `json:"documents,omitempty"`
	PropertiesCount   *int        `json:"propertiesCount,omitempty"`
	CustomersCount    *int        `json:"customersCount,omitempty"`
	UsersCount        *int        `json:"usersCount,omitempty"`
}

// Admin returns the company's admin user: the first user with role "admin",
// else the first user. It returns nil when the company carries no users.
func (c *Company) Admin() *AdminUser {
	for i := range c.Users {
		if strings.EqualFold(c.Users[i].Role, "admin") {
			return &c.Users[i]
		}
	}
	if len(c.Users) > 0 {
		return &c.Users[0]
	}
	return nil
}

// AdminUser is a user account belonging to a company.
type AdminUser struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Role    string `json:"role,omitempty"`
	Address string `json:"address,omitempty"`
	Age     *int   `json:"age,omitempty"`
	Gender  string `json:"gender,omitempty"`
}

// InitialUserInput is the admin user created together with a company.
type InitialUserInput struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone,omitempty" validate:"phone"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// CreateCompanyRequest is the payload of POST /companies.
type CreateCompanyRequest struct {
	Name        string           `json:"name" validate:"required,min=2"`
	Email       string           `json:"email" validate:"required,email"`
	Phone       string           `json:"phone,omitempty" validate:"phone"`
	Address     string           `json:"address,omitempty"`
	SalesmanID  string           `json:"salesman_id,omitempty"`
	InitialUser InitialUserInput `json:"initial_user"`
}

// Trim returns a copy with surrounding whitespace removed from every text
// field, the way the onboarding form submits it.
func (r CreateCompanyRequest) Trim() CreateCompanyRequest {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Address = strings.TrimSpace(r.Address)
	r.InitialUser.Name = strings.TrimSpace(r.InitialUser.Name)
	r.InitialUser.Email = strings.TrimSpace(r.InitialUser.Email)
	r.InitialUser.Phone = strings.TrimSpace(r.InitialUser.Phone)
	r.InitialUser.Password = strings.TrimSpace(r.InitialUser.Password)
	return r
}

// InitialUser is the created admin account, including the plain password so
// the salesman can hand it over.
type InitialUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// CreateCompanyResponse is the body returned by POST /companies.
type CreateCompanyResponse struct {
	Company     Company     `json:"company"`
	InitialUser InitialUser `json:"initial_user"`
	SalesmanID  string      `json:"salesman_id"`
}

// UpdateCompanyRequest is a partial update; nil fields are left unchanged.
type UpdateCompanyRequest struct {
	Name              *string `json:"name,omitempty"`
	Email             *string `json:"email,omitempty"`
	Phone             *string `json:"phone,omitempty"`
	Address           *string `json:"address,omitempty"`
	TeamMembers       *int    `json:"team_members,omitempty"`
	YearsOfExperience *int    `json:"years_of_experience,omitempty"`
	OfficePhotoURL    *string `json:"office_photo_url,omitempty"`
	IsActive          *bool   `json:"is_active,omitempty"`
}

// Empty reports whether the request changes nothing.
func (r *UpdateCompanyRequest) Empty() bool {
	return r.Name == nil && r.Email == nil && r.Phone == nil && r.Address == nil &&
		r.TeamMembers == nil && r.YearsOfExperience == nil && r.OfficePhotoURL == nil &&
		r.IsActive == nil
}

// UpdateCompanyUserRequest is a partial update of a company's admin user.
type UpdateCompanyUserRequest struct {
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
	Age     *int    `json:"age,omitempty"`
	Gender  *string `json:"gender,omitempty"`
}

// CompanyList is one page of GET /companies.
type CompanyList struct {
	Companies  []Company `json:"companies"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	SalesmanID string    `json:"salesman_id,omitempty"`
	HasMore    bool      `json:"-"`
}
