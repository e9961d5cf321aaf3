package testing

import (
	"fmt"
	"time"

	"github.com/amirphl/Orochi-CRM/models"
	"github.com/amirphl/Orochi-CRM/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TestPassword is the plain password of every fixture user
const TestPassword = "TestPass123!"

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestUser creates an active user with the given base email allowance
func (tf *TestFixtures) CreateTestUser(emailLimit int) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         "John Doe",
		Email:        fmt.Sprintf("john.doe.%s@example.com", uuid.NewString()[:8]),
		PasswordHash: string(hashedPassword),
		EmailLimit:   emailLimit,
		Plan:         "free",
		IsActive:     utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create test user: %w", err)
	}

	return user, nil
}

// CreateTestPayment creates a payment for the user dated daysAgo days in the past
func (tf *TestFixtures) CreateTestPayment(userID uint, status models.PaymentStatus, sendCredits, verificationCredits int, daysAgo int) (*models.Payment, error) {
	payment := &models.Payment{
		UserID:                   userID,
		Amount:                   int64(sendCredits) * 10,
		Currency:                 "USD",
		Status:                   status,
		EmailSendCredits:         sendCredits,
		EmailVerificationCredits: verificationCredits,
		PaymentDate:              utils.UTCNow().Add(-time.Duration(daysAgo) * 24 * time.Hour),
	}

	if err := tf.DB.DB.Create(payment).Error; err != nil {
		return nil, fmt.Errorf("failed to create test payment: %w", err)
	}

	return payment, nil
}

// CreateTestCampaign persists a campaign owned by the user
func (tf *TestFixtures) CreateTestCampaign(userID uint, status models.CampaignStatus) (*models.Campaign, error) {
	campaign := &models.Campaign{
		UserID:         userID,
		Name:           "Spring Launch",
		Subject:        "Spring Launch",
		FromName:       "Acme",
		FromEmail:      "news@acme.test",
		ScheduleType:   models.ScheduleTypeImmediate,
		Status:         status,
		DesignJSON:     "[]",
		RecipientsJSON: `["a@example.com"]`,
	}
	if status == models.CampaignStatusScheduled {
		campaign.ScheduleType = models.ScheduleTypeScheduled
	}

	if err := tf.DB.DB.Create(campaign).Error; err != nil {
		return nil, fmt.Errorf("failed to create test campaign: %w", err)
	}

	return campaign, nil
}

// CreateTestContact adds a contact to the user's address book
func (tf *TestFixtures) CreateTestContact(userID uint, name, email string) (*models.Contact, error) {
	contact := &models.Contact{UserID: userID, Name: name, Email: email}
	if err := tf.DB.DB.Create(contact).Error; err != nil {
		return nil, fmt.Errorf("failed to create test contact: %w", err)
	}
	return contact, nil
}
