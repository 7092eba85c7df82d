// Package businessflow contains the core business logic and use cases for campaign workflows
package businessflow

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/amirphl/Susanoo/app/dto"
	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/repository"
	"github.com/amirphl/Susanoo/utils"
	"github.com/xuri/excelize/v2"
)

const importPreviewSize = 5

// ImportFlow turns an uploaded spreadsheet into draft recipients. The first
// sheet must carry a header row whose first column is phone_number; every
// further header cell names a template variable filled from that column.
type ImportFlow interface {
	ImportRecipients(ctx context.Context, req *dto.ImportRecipientsRequest, metadata *ClientMetadata) (*dto.ImportRecipientsResponse, error)
}

// ImportFlowImpl implements the recipient import business flow
type ImportFlowImpl struct {
	draftRepo    repository.CampaignDraftRepository
	customerRepo repository.CustomerRepository
	auditRepo    repository.AuditLogRepository
}

// NewImportFlow creates a new import flow instance
func NewImportFlow(
	draftRepo repository.CampaignDraftRepository,
	customerRepo repository.CustomerRepository,
	auditRepo repository.AuditLogRepository,
) ImportFlow {
	return &ImportFlowImpl{
		draftRepo:    draftRepo,
		customerRepo: customerRepo,
		auditRepo:    auditRepo,
	}
}

// ImportRecipients parses the workbook and replaces the recipient list of the
// customer's draft with its rows. Rows without a phone number are skipped,
// not rejected, so a half-filled export can still be imported.
func (f *ImportFlowImpl) ImportRecipients(ctx context.Context, req *dto.ImportRecipientsRequest, metadata *ClientMetadata) (*dto.ImportRecipientsResponse, error) {
	customer, err := getCustomer(ctx, f.customerRepo, req.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}

	targets, skipped, err := parseRecipientWorkbook(req.Data)
	if err != nil {
		errMsg := fmt.Sprintf("Recipient import failed: %s (file %s)", err.Error(), req.FileName)
		_ = writeAuditLog(ctx, f.auditRepo, &customer, models.AuditActionRecipientsImport, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("RECIPIENT_IMPORT_FAILED", "Recipient import failed", err)
	}

	// Merge into the draft, creating one when the customer has none yet
	draft, err := f.draftRepo.ByCustomerID(ctx, customer.ID)
	if err != nil {
		return nil, NewBusinessError("DRAFT_LOOKUP_FAILED", "Failed to lookup draft", err)
	}

	now := utils.UTCNow()
	if draft == nil {
		draft = &models.CampaignDraft{
			CustomerID: customer.ID,
			CreatedAt:  now,
		}
	}
	draft.Payload.Recipients = targets
	draft.UpdatedAt = &now

	if err := f.draftRepo.Upsert(ctx, draft); err != nil {
		return nil, NewBusinessError("DRAFT_SAVE_FAILED", "Failed to store imported recipients", err)
	}

	msg := fmt.Sprintf("Imported %d recipients from %s (%d rows skipped)", len(targets), req.FileName, skipped)
	_ = writeAuditLog(ctx, f.auditRepo, &customer, models.AuditActionRecipientsImport, msg, true, nil, metadata)

	preview := make([]dto.RecipientEntry, 0, importPreviewSize)
	for _, t := range targets {
		if len(preview) == importPreviewSize {
			break
		}
		preview = append(preview, dto.RecipientEntry{PhoneNumber: t.PhoneNumber, Variables: t.Variables})
	}

	return &dto.ImportRecipientsResponse{
		Message:  "Recipients imported successfully",
		Imported: len(targets),
		Skipped:  skipped,
		Preview:  preview,
	}, nil
}

// parseRecipientWorkbook extracts recipient targets from the first sheet
func parseRecipientWorkbook(data []byte) ([]models.DraftTarget, int, error) {
	if len(data) == 0 {
		return nil, 0, ErrImportFileEmpty
	}

	xl, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrImportUnsupportedFormat, err)
	}
	defer func() { _ = xl.Close() }()

	sheet := xl.GetSheetName(0)
	rows, err := xl.GetRows(sheet)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrImportUnsupportedFormat, err)
	}
	if len(rows) == 0 {
		return nil, 0, ErrImportHeaderMissing
	}

	header := rows[0]
	if len(header) == 0 || strings.ToLower(strings.TrimSpace(header[0])) != "phone_number" {
		return nil, 0, ErrImportHeaderMissing
	}

	// Cells beyond the header width and empty variable names are ignored
	varNames := make([]string, len(header))
	for i := 1; i < len(header); i++ {
		varNames[i] = strings.TrimSpace(header[i])
	}

	targets := make([]models.DraftTarget, 0, len(rows)-1)
	skipped := 0

	for _, row := range rows[1:] {
		if len(row) == 0 {
			skipped++
			continue
		}
		phone := strings.TrimSpace(row[0])
		if phone == "" {
			skipped++
			continue
		}

		var variables map[string]string
		for i := 1; i < len(row) && i < len(varNames); i++ {
			name := varNames[i]
			value := strings.TrimSpace(row[i])
			if name == "" || value == "" {
				continue
			}
			if variables == nil {
				variables = make(map[string]string)
			}
			variables[name] = value
		}

		targets = append(targets, models.DraftTarget{
			PhoneNumber: phone,
			Variables:   variables,
		})

		if len(targets) > utils.MaxRecipientsPerCampaign {
			return nil, 0, ErrTooManyRecipients
		}
	}

	if len(targets) == 0 {
		return nil, 0, ErrImportFileEmpty
	}

	return targets, skipped, nil
}
