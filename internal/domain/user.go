package domain

// DefaultLoginRole identifies this client's user class to the backend.
const DefaultLoginRole = "salesman"

// User is the signed-in salesman as returned by the login endpoint. It is a
// snapshot and is only refreshed by logging in again.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role"`
	CompanyID string `json:"company_id"`
}

// Ptr returns a pointer to v. Partial update requests use pointer fields.
func Ptr[T any](v T) *T {
	return &v
}
