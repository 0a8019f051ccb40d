package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/utafrali/salesonboard/internal/companies"
	"github.com/utafrali/salesonboard/internal/domain"
	"github.com/utafrali/salesonboard/internal/onboarding"
	apperrors "github.com/utafrali/salesonboard/pkg/errors"
	"github.com/utafrali/salesonboard/pkg/pagination"
)

func newCompaniesCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "companies",
		Aliases: []string{"company"},
		Short:   "Create, list and edit companies",
	}
	cmd.AddCommand(
		newCompaniesListCmd(e),
		newCompaniesGetCmd(e),
		newCompaniesCreateCmd(e),
		newCompaniesUpdateCmd(e),
		newCompaniesUpdateUserCmd(e),
	)
	return cmd
}

type companyPage struct {
	Companies []domain.Company  `json:"companies"`
	Cursor    pagination.Cursor `json:"cursor"`
}

func newCompaniesListCmd(e *env) *cobra.Command {
	var (
		params companies.ListParams
		status string
		all    bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List companies onboarded by the signed-in salesman",
		RunE: func(cmd *cobra.Command, args []string) error {
			params.Status = domain.CompanyStatus(status)
			if params.Status != "" && !params.Status.Valid() {
				return apperrors.Validation("--status must be active or inactive", nil)
			}

			var rows []domain.Company
			for {
				list, err := e.app.Companies.GetAll(cmd.Context(), params)
				if err != nil {
					return err
				}
				// Advance from the page requested, not the one echoed back.
				page := max(params.Page, 1)
				rows = pagination.Accumulate(rows, page, list.Companies, false)
				cursor := pagination.NewCursor(page, list.Limit, list.Total, len(list.Companies))
				if !all || !cursor.HasMore || cursor.Exhausted() {
					return printJSON(cmd.OutOrStdout(), companyPage{Companies: rows, Cursor: cursor})
				}
				params.Params = cursor.Next()
			}
		},
	}
	def := pagination.DefaultParams()
	cmd.Flags().IntVar(&params.Page, "page", def.Page, "page to fetch")
	cmd.Flags().IntVar(&params.Limit, "limit", def.Limit, "rows per page")
	cmd.Flags().StringVarP(&params.Search, "search", "s", "", "search by name or email")
	cmd.Flags().StringVar(&status, "status", "", "active or inactive")
	cmd.Flags().StringVar(&params.UserID, "user-id", "", "filter by creating user")
	cmd.Flags().BoolVar(&all, "all", false, "follow pages until the last one")
	return cmd
}

func newCompaniesGetCmd(e *env) *cobra.Command {
	var details bool

	cmd := &cobra.Command{
		Use:   "get COMPANY_ID",
		Short: "Show one company",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			get := e.app.Companies.GetByID
			if details {
				get = e.app.Companies.GetDetails
			}
			company, err := get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), company)
		},
	}
	cmd.Flags().BoolVarP(&details, "details", "d", false, "include users, documents and counts")
	return cmd
}

func newCompaniesCreateCmd(e *env) *cobra.Command {
	var (
		req       domain.CreateCompanyRequest
		documents []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Onboard a company with its admin user and identity proof",
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := parseDocuments(documents)
			if err != nil {
				return err
			}

			res, err := e.app.Onboarding.Onboard(cmd.Context(), onboarding.Request{Company: req, Documents: docs})
			if err != nil {
				return formError(err, onboarding.MapCreateError)
			}
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if res.Partial() {
				cmd.PrintErrf("company created, %d document(s) failed to upload\n", len(res.Documents.Failed))
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Name, "name", "", "company name")
	f.StringVar(&req.Email, "email", "", "company email")
	f.StringVar(&req.Phone, "phone", "", "company phone")
	f.StringVar(&req.Address, "address", "", "company address")
	f.StringVar(&req.InitialUser.Name, "admin-name", "", "admin user name")
	f.StringVar(&req.InitialUser.Email, "admin-email", "", "admin user email")
	f.StringVar(&req.InitialUser.Phone, "admin-phone", "", "admin user phone")
	f.StringVar(&req.InitialUser.Password, "admin-password", "", "admin user password")
	f.StringArrayVar(&documents, "document", nil, "identity proof as TYPE=PATH, repeatable")
	return cmd
}

func newCompaniesUpdateCmd(e *env) *cobra.Command {
	var (
		form        onboarding.EditRequest
		admin       onboarding.AdminUserInput
		active      bool
		officePhoto string
		documents   []string
	)

	cmd := &cobra.Command{
		Use:   "update COMPANY_ID",
		Short: "Edit a company and its admin user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := e.app.Companies.GetByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			req := overlayEdit(cmd, current, form, admin)
			if cmd.Flags().Changed("active") {
				req.IsActive = &active
			}
			if officePhoto != "" {
				photo := localFile(officePhoto)
				req.OfficePhoto = &photo
			}
			if req.Documents, err = parseDocuments(documents); err != nil {
				return err
			}

			res, err := e.app.Onboarding.Edit(cmd.Context(), req)
			if err != nil {
				return formError(err, onboarding.MapServerError)
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	f := cmd.Flags()
	f.StringVar(&form.Name, "name", "", "company name")
	f.StringVar(&form.Email, "email", "", "company email")
	f.StringVar(&form.Phone, "phone", "", "company phone")
	f.StringVar(&form.Address, "address", "", "company address")
	f.StringVar(&form.TeamMembers, "team-members", "", "team size")
	f.StringVar(&form.YearsOfExperience, "years-of-experience", "", "years in business")
	f.BoolVar(&active, "active", true, "mark the company active or inactive")
	f.StringVar(&officePhoto, "office-photo", "", "path of a new office photo")
	f.StringVar(&admin.Name, "admin-name", "", "admin user name")
	f.StringVar(&admin.Email, "admin-email", "", "admin user email")
	f.StringVar(&admin.Phone, "admin-phone", "", "admin user phone")
	f.StringVar(&admin.Address, "admin-address", "", "admin user address")
	f.StringVar(&admin.Age, "admin-age", "", "admin user age")
	f.StringVar(&admin.Gender, "admin-gender", "", "admin user gender")
	f.StringArrayVar(&documents, "document", nil, "new identity proof as TYPE=PATH, repeatable")
	return cmd
}

// overlayEdit prefills the edit form from the stored company and applies only
// the flags the user set, the way the edit screen starts from current values.
func overlayEdit(cmd *cobra.Command, current *domain.Company, form onboarding.EditRequest, admin onboarding.AdminUserInput) onboarding.EditRequest {
	changed := cmd.Flags().Changed
	pick := func(flag, set, stored string) string {
		if changed(flag) {
			return set
		}
		return stored
	}

	req := onboarding.EditRequest{
		CompanyID:         current.ID,
		Name:              pick("name", form.Name, current.Name),
		Email:             pick("email", form.Email, current.Email),
		Phone:             pick("phone", form.Phone, current.Phone),
		Address:           pick("address", form.Address, current.Address),
		TeamMembers:       pick("team-members", form.TeamMembers, itoa(current.TeamMembers)),
		YearsOfExperience: pick("years-of-experience", form.YearsOfExperience, itoa(current.YearsOfExperience)),
		OfficePhotoURL:    current.OfficePhotoURL,
	}

	stored := current.Admin()
	if stored == nil {
		return req
	}
	req.AdminUserID = stored.ID
	req.AdminUser = &onboarding.AdminUserInput{
		Name:    pick("admin-name", admin.Name, stored.Name),
		Email:   pick("admin-email", admin.Email, stored.Email),
		Phone:   pick("admin-phone", admin.Phone, stored.Phone),
		Address: pick("admin-address", admin.Address, stored.Address),
		Age:     pick("admin-age", admin.Age, itoa(stored.Age)),
		Gender:  pick("admin-gender", admin.Gender, stored.Gender),
	}
	return req
}

func newCompaniesUpdateUserCmd(e *env) *cobra.Command {
	var (
		in  onboarding.AdminUserInput
		age int
	)

	cmd := &cobra.Command{
		Use:   "update-user COMPANY_ID USER_ID",
		Short: "Edit one of a company's users",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			changed := cmd.Flags().Changed
			req := &domain.UpdateCompanyUserRequest{}
			if changed("name") {
				req.Name = &in.Name
			}
			if changed("email") {
				req.Email = &in.Email
			}
			if changed("phone") {
				req.Phone = &in.Phone
			}
			if changed("address") {
				req.Address = &in.Address
			}
			if changed("age") {
				req.Age = &age
			}
			if changed("gender") {
				req.Gender = &in.Gender
			}

			user, err := e.app.Companies.UpdateCompanyUser(cmd.Context(), args[0], args[1], req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), user)
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "user name")
	f.StringVar(&in.Email, "email", "", "user email")
	f.StringVar(&in.Phone, "phone", "", "user phone")
	f.StringVar(&in.Address, "address", "", "user address")
	f.IntVar(&age, "age", 0, "user age")
	f.StringVar(&in.Gender, "gender", "", "user gender")
	return cmd
}

func itoa(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}
