package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"github.com/utafrali/salesonboard/internal/domain"
	"github.com/utafrali/salesonboard/internal/onboarding"
	apperrors "github.com/utafrali/salesonboard/pkg/errors"
)

// localFile describes a file on disk. The MIME type is sniffed from the
// content; an unreadable file keeps an empty type and fails at upload time.
func localFile(path string) domain.UploadFile {
	f := domain.UploadFile{URI: path, FileName: filepath.Base(path)}
	if m, err := mimetype.DetectFile(path); err == nil {
		f.Type = m.String()
	}
	return f
}

// parseDocuments turns repeated TYPE=PATH flags into identity documents.
func parseDocuments(specs []string) ([]onboarding.IdentityDocument, error) {
	docs := make([]onboarding.IdentityDocument, 0, len(specs))
	for _, s := range specs {
		typ, path, ok := strings.Cut(s, "=")
		if !ok || strings.TrimSpace(path) == "" {
			return nil, apperrors.Validation(fmt.Sprintf("invalid --document %q, want TYPE=PATH", s), nil)
		}
		docs = append(docs, onboarding.IdentityDocument{
			File: localFile(strings.TrimSpace(path)),
			Type: domain.DocumentType(strings.TrimSpace(typ)),
		})
	}
	return docs, nil
}

func newFilesCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Upload and manage company files",
	}
	cmd.AddCommand(newFilesUploadCmd(e), newFilesDeleteCmd(e), newFilesUpdateCmd(e))
	return cmd
}

func newFilesUploadCmd(e *env) *cobra.Command {
	var (
		companyID    string
		kind         string
		documentType string
	)

	cmd := &cobra.Command{
		Use:   "upload PATH...",
		Short: "Upload files, to a company when --company is set",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files := make([]domain.UploadFile, len(args))
			for i, p := range args {
				files[i] = localFile(p)
			}
			var extra map[string]string
			if documentType != "" {
				extra = map[string]string{"document_type": documentType}
			}

			resp := e.app.Uploads.UploadBulk(cmd.Context(), files, domain.FileKind(kind), companyID, extra)
			if err := printJSON(cmd.OutOrStdout(), resp); err != nil {
				return err
			}
			if len(resp.Failed) > 0 {
				return fmt.Errorf("%d of %d uploads failed", len(resp.Failed), len(files))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&companyID, "company", "c", "", "company id")
	cmd.Flags().StringVarP(&kind, "kind", "k", string(domain.KindDocument), "image, video or document")
	cmd.Flags().StringVar(&documentType, "document-type", "", "document classification sent with every file")
	return cmd
}

func newFilesDeleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete COMPANY_ID FILE_ID",
		Short: "Delete a company file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := e.app.Uploads.DeleteCompanyFile(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]bool{"deleted": ok})
		},
	}
}

func newFilesUpdateCmd(e *env) *cobra.Command {
	var documentType string

	cmd := &cobra.Command{
		Use:   "update COMPANY_ID FILE_ID",
		Short: "Change a company file's metadata",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := e.app.Uploads.UpdateCompanyFile(cmd.Context(), args[0], args[1], map[string]string{
				"document_type": documentType,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), doc)
		},
	}
	cmd.Flags().StringVar(&documentType, "document-type", "", "new document classification")
	_ = cmd.MarkFlagRequired("document-type")
	return cmd
}

func newDocumentTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "document-types",
		Short:       "List accepted identity-proof document types",
		Annotations: map[string]string{"offline": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, t := range domain.DocumentTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
			return nil
		},
	}
}
