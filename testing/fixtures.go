package testing

import (
	"fmt"
	"math/rand"

	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/utils"
	"golang.org/x/crypto/bcrypt"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(testDB *TestDB) *TestFixtures {
	return &TestFixtures{DB: testDB}
}

// CreateTestWorkspace creates a workspace with default quota bootstrap values
func (tf *TestFixtures) CreateTestWorkspace() (*models.Workspace, error) {
	workspace := &models.Workspace{
		Name:                fmt.Sprintf("Test Workspace %06d", rand.Intn(1000000)),
		DefaultDailyQuota:   1000,
		DefaultMonthlyQuota: 20000,
		IsActive:            true,
	}

	err := tf.DB.DB.Create(workspace).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test workspace: %w", err)
	}

	return workspace, nil
}

// CreateTestCustomer creates a customer in the given workspace.
// The password is always "TestPass123!" so login tests can authenticate.
func (tf *TestFixtures) CreateTestCustomer(workspaceID uint) (*models.Customer, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("TestPass123!"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	customer := &models.Customer{
		WorkspaceID:  workspaceID,
		Email:        fmt.Sprintf("test%09d@example.com", rand.Intn(1000000000)),
		PasswordHash: string(hashedPassword),
		FullName:     "Test Customer",
		IsActive:     true,
	}

	err = tf.DB.DB.Create(customer).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test customer: %w", err)
	}

	return customer, nil
}

// CreateWorkspaceWithCustomer creates a workspace and one customer inside it
func (tf *TestFixtures) CreateWorkspaceWithCustomer() (*models.Workspace, *models.Customer, error) {
	workspace, err := tf.CreateTestWorkspace()
	if err != nil {
		return nil, nil, err
	}

	customer, err := tf.CreateTestCustomer(workspace.ID)
	if err != nil {
		return nil, nil, err
	}

	return workspace, customer, nil
}

// CreateTestInbox creates an inbox in the given workspace with the given status
func (tf *TestFixtures) CreateTestInbox(workspaceID uint, status models.InboxStatus) (*models.Inbox, error) {
	inbox := &models.Inbox{
		WorkspaceID: workspaceID,
		DisplayName: fmt.Sprintf("Test Inbox %04d", rand.Intn(10000)),
		PhoneNumber: fmt.Sprintf("+1555%07d", rand.Intn(10000000)),
		Status:      status,
	}
	if status == models.InboxStatusConnected {
		inbox.LastSeenAt = utils.UTCNowPtr()
	}

	err := tf.DB.DB.Create(inbox).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test inbox: %w", err)
	}

	return inbox, nil
}

// CreateTestCampaign creates a pending campaign with the given number of
// pending recipients. Recipients are numbered by position and carry a name
// variable so template substitution is observable in tests.
func (tf *TestFixtures) CreateTestCampaign(customerID, workspaceID, inboxID uint, recipientCount int) (*models.Campaign, error) {
	campaign := &models.Campaign{
		CustomerID:  customerID,
		WorkspaceID: workspaceID,
		InboxID:     inboxID,
		Title:       fmt.Sprintf("Test Campaign %04d", rand.Intn(10000)),
		Status:      models.CampaignStatusPending,
		Messages: models.MessageList{
			{Kind: models.MessageKindText, Text: "Hello {{name}}"},
		},
		DelayMinMinutes: 1,
		DelayMaxMinutes: 2,
		TotalRecipients: recipientCount,
	}

	err := tf.DB.DB.Create(campaign).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test campaign: %w", err)
	}

	if recipientCount > 0 {
		if _, err := tf.CreateTestRecipients(campaign.ID, recipientCount); err != nil {
			return nil, err
		}
	}

	return campaign, nil
}

// CreateTestRecipients creates pending recipients for a campaign at positions 0..count-1
func (tf *TestFixtures) CreateTestRecipients(campaignID uint, count int) ([]*models.Recipient, error) {
	recipients := make([]*models.Recipient, 0, count)
	for i := 0; i < count; i++ {
		recipient := &models.Recipient{
			CampaignID:  campaignID,
			Position:    i,
			PhoneNumber: fmt.Sprintf("+1666%07d", i),
			Variables:   models.VariableMap{"name": fmt.Sprintf("Recipient %d", i)},
			Status:      models.RecipientStatusPending,
		}
		if err := tf.DB.DB.Create(recipient).Error; err != nil {
			return nil, fmt.Errorf("failed to create test recipient %d: %w", i, err)
		}
		recipients = append(recipients, recipient)
	}

	return recipients, nil
}

// CreateTestLedger creates a quota ledger for a workspace with the given limits
// and periods anchored at the current UTC day and month
func (tf *TestFixtures) CreateTestLedger(workspaceID uint, dailyLimit, monthlyLimit int) (*models.QuotaLedger, error) {
	now := utils.UTCNow()
	ledger := &models.QuotaLedger{
		WorkspaceID:  workspaceID,
		DailyLimit:   dailyLimit,
		MonthlyLimit: monthlyLimit,
		DayStart:     utils.StartOfDay(now),
		MonthStart:   utils.StartOfMonth(now),
	}

	err := tf.DB.DB.Create(ledger).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test ledger: %w", err)
	}

	return ledger, nil
}

// CreateTestAuditLog creates an audit log entry for testing
func (tf *TestFixtures) CreateTestAuditLog(customerID *uint, action string) (*models.AuditLog, error) {
	description := "Test audit log entry"
	ipAddress := "192.168.1.1"
	userAgent := "Test User Agent"

	auditLog := &models.AuditLog{
		CustomerID:  customerID,
		Action:      action,
		Description: &description,
		IPAddress:   &ipAddress,
		UserAgent:   &userAgent,
		Success:     utils.ToPtr(true),
	}

	err := tf.DB.DB.Create(auditLog).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test audit log: %w", err)
	}

	return auditLog, nil
}
