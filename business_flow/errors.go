// Package businessflow contains the core business logic and use cases for campaign workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Customer-related errors
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrAccountInactive   = errors.New("account is inactive")
	ErrIncorrectPassword = errors.New("incorrect password")

	// Workspace and inbox errors
	ErrWorkspaceNotFound  = errors.New("workspace not found")
	ErrWorkspaceInactive  = errors.New("workspace is inactive")
	ErrInboxNotFound      = errors.New("inbox not found")
	ErrInboxAccessDenied  = errors.New("inbox belongs to another workspace")
	ErrInboxDisconnected  = errors.New("inbox is not connected")
	ErrInboxUUIDRequired  = errors.New("inbox UUID is required")
	ErrInboxStatusUnknown = errors.New("inbox status could not be determined")

	// Campaign-related errors
	ErrCampaignNotFound         = errors.New("campaign not found")
	ErrCampaignAccessDenied     = errors.New("campaign access denied")
	ErrCampaignTitleRequired    = errors.New("campaign title is required")
	ErrCampaignMessagesRequired = errors.New("campaign needs at least one message")
	ErrTooManyMessages          = errors.New("campaign message sequence is too long")
	ErrMessageTextRequired      = errors.New("text messages need a non-empty body")
	ErrMessageMediaURLRequired  = errors.New("media messages need a media URL")
	ErrRecipientsRequired       = errors.New("campaign needs at least one recipient")
	ErrTooManyRecipients        = errors.New("recipient list exceeds the per-campaign cap")
	ErrRecipientPhoneRequired   = errors.New("recipient phone numbers cannot be empty")
	ErrDelayBoundsInvalid       = errors.New("delay bounds must be between 1 and 30 minutes with min <= max")
	ErrScheduleTimeInPast       = errors.New("schedule time cannot be in the past")
	ErrCampaignNotPending       = errors.New("only pending campaigns can be started")
	ErrCampaignNotRunning       = errors.New("only running campaigns can be paused")
	ErrCampaignNotPaused        = errors.New("only paused campaigns can be resumed")
	ErrCampaignAlreadyFinished  = errors.New("campaign is already completed or cancelled")
	ErrCampaignUUIDRequired     = errors.New("campaign UUID is required")
	ErrEmptySendWindow          = errors.New("send window permits no instant")
	ErrRecipientStatusUnknown   = errors.New("unknown recipient status filter")
	ErrImportFileEmpty          = errors.New("import file contains no recipient rows")
	ErrImportHeaderMissing      = errors.New("import file needs a header row starting with phone_number")
	ErrImportUnsupportedFormat  = errors.New("import file is not a readable xlsx workbook")

	// Draft errors
	ErrDraftNotFound = errors.New("draft not found")

	// Quota errors
	ErrQuotaLedgerNotFound = errors.New("quota ledger not found")

	// Filter errors
	ErrInvalidPage     = errors.New("page must be at least 1")
	ErrInvalidPageSize = errors.New("page size must be between 1 and 100")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsCustomerNotFound(err error) bool {
	return errors.Is(err, ErrCustomerNotFound)
}

func IsAccountInactive(err error) bool {
	return errors.Is(err, ErrAccountInactive)
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}

func IsWorkspaceNotFound(err error) bool {
	return errors.Is(err, ErrWorkspaceNotFound)
}

func IsWorkspaceInactive(err error) bool {
	return errors.Is(err, ErrWorkspaceInactive)
}

func IsInboxNotFound(err error) bool {
	return errors.Is(err, ErrInboxNotFound)
}

func IsInboxAccessDenied(err error) bool {
	return errors.Is(err, ErrInboxAccessDenied)
}

func IsInboxDisconnected(err error) bool {
	return errors.Is(err, ErrInboxDisconnected)
}

func IsCampaignNotFound(err error) bool {
	return errors.Is(err, ErrCampaignNotFound)
}

func IsCampaignAccessDenied(err error) bool {
	return errors.Is(err, ErrCampaignAccessDenied)
}

func IsCampaignNotPending(err error) bool {
	return errors.Is(err, ErrCampaignNotPending)
}

func IsCampaignNotRunning(err error) bool {
	return errors.Is(err, ErrCampaignNotRunning)
}

func IsCampaignNotPaused(err error) bool {
	return errors.Is(err, ErrCampaignNotPaused)
}

func IsCampaignAlreadyFinished(err error) bool {
	return errors.Is(err, ErrCampaignAlreadyFinished)
}

func IsDelayBoundsInvalid(err error) bool {
	return errors.Is(err, ErrDelayBoundsInvalid)
}

func IsEmptySendWindow(err error) bool {
	return errors.Is(err, ErrEmptySendWindow)
}

func IsScheduleTimeInPast(err error) bool {
	return errors.Is(err, ErrScheduleTimeInPast)
}

func IsTooManyRecipients(err error) bool {
	return errors.Is(err, ErrTooManyRecipients)
}

func IsTooManyMessages(err error) bool {
	return errors.Is(err, ErrTooManyMessages)
}

func IsMessageTextRequired(err error) bool {
	return errors.Is(err, ErrMessageTextRequired)
}

func IsMessageMediaURLRequired(err error) bool {
	return errors.Is(err, ErrMessageMediaURLRequired)
}

func IsRecipientStatusUnknown(err error) bool {
	return errors.Is(err, ErrRecipientStatusUnknown)
}

func IsImportFileEmpty(err error) bool {
	return errors.Is(err, ErrImportFileEmpty)
}

func IsImportHeaderMissing(err error) bool {
	return errors.Is(err, ErrImportHeaderMissing)
}

func IsImportUnsupportedFormat(err error) bool {
	return errors.Is(err, ErrImportUnsupportedFormat)
}

func IsDraftNotFound(err error) bool {
	return errors.Is(err, ErrDraftNotFound)
}

func IsQuotaLedgerNotFound(err error) bool {
	return errors.Is(err, ErrQuotaLedgerNotFound)
}

func IsInvalidPage(err error) bool {
	return errors.Is(err, ErrInvalidPage)
}

func IsInvalidPageSize(err error) bool {
	return errors.Is(err, ErrInvalidPageSize)
}
