package leads

import (
	"encoding/json"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/cleanco/platform/internal/models"
	"github.com/cleanco/platform/internal/store"
	"github.com/cleanco/platform/pkg/apperrors"
	"github.com/cleanco/platform/pkg/ids"
)

var leads store.Leads

const referralCodeAlphabet = "0123456789abcdefghjkmnpqrstuvwxyz" // no i/l/o: avoids 1/0 ambiguity when read aloud

const maxReferralCodeAttempts = 5

// IntakeInput is what public intake submits; EstimateSnapshot is an opaque
// blob produced by the external pricing evaluator and is never parsed or
// modified here, only checked for being syntactically valid JSON.
type IntakeInput struct {
	ContactName      string
	ContactPhone     string
	ContactEmail     string
	ContactAddress   string
	StructuredInputs json.RawMessage
	EstimateSnapshot json.RawMessage
	ReferredByCode   string
}

// Intake validates and persists a new Lead, issuing it a fresh unique
// referral code and resolving any referred_by code to the referring lead
// in the same org.
func Intake(tx *gorm.DB, orgID string, in IntakeInput) (*models.Lead, error) {
	if len(in.EstimateSnapshot) == 0 || !json.Valid(in.EstimateSnapshot) {
		return nil, apperrors.Validation("invalid_estimate_snapshot", "estimate snapshot must be a non-empty JSON document")
	}

	var referredByLeadID *string
	if in.ReferredByCode != "" {
		code := normalizeReferralCode(in.ReferredByCode)
		referring, err := leads.ByReferralCode(tx, orgID, code)
		if err != nil {
			return nil, err
		}
		if referring == nil {
			return nil, apperrors.Validation("referred_by_not_found", "referred_by code does not match a lead in this organization")
		}
		referredByLeadID = &referring.ID
	}

	id, err := ids.New(ids.PrefixLead, 16)
	if err != nil {
		return nil, err
	}
	code, err := newUniqueReferralCode(tx, orgID)
	if err != nil {
		return nil, err
	}

	lead := &models.Lead{
		ID:               id,
		OrgID:            orgID,
		ContactName:      in.ContactName,
		ContactPhone:     in.ContactPhone,
		ContactEmail:     in.ContactEmail,
		ContactAddress:   in.ContactAddress,
		StructuredInputs: datatypes.JSON(in.StructuredInputs),
		EstimateSnapshot: datatypes.JSON(in.EstimateSnapshot),
		ReferralCode:     code,
		ReferredByLeadID: referredByLeadID,
		Status:           models.LeadStatusNew,
	}
	if err := leads.Create(tx, lead); err != nil {
		return nil, err
	}
	return lead, nil
}

// MarkContacted, MarkBooked, MarkDone, MarkCancelled move a lead through
// its pipeline. They are called from the admin lead-status endpoint; the
// booking transitions do not change a lead's status.
func MarkContacted(tx *gorm.DB, orgID, leadID string) error {
	return leads.UpdateStatus(tx, orgID, leadID, models.LeadStatusContacted)
}

func MarkBooked(tx *gorm.DB, orgID, leadID string) error {
	return leads.UpdateStatus(tx, orgID, leadID, models.LeadStatusBooked)
}

func MarkDone(tx *gorm.DB, orgID, leadID string) error {
	return leads.UpdateStatus(tx, orgID, leadID, models.LeadStatusDone)
}

func MarkCancelled(tx *gorm.DB, orgID, leadID string) error {
	return leads.UpdateStatus(tx, orgID, leadID, models.LeadStatusCancelled)
}

func normalizeReferralCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

func newUniqueReferralCode(tx *gorm.DB, orgID string) (string, error) {
	for attempt := 0; attempt < maxReferralCodeAttempts; attempt++ {
		code, err := gonanoid.Generate(referralCodeAlphabet, 8)
		if err != nil {
			return "", err
		}
		existing, err := leads.ByReferralCode(tx, orgID, code)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return code, nil
		}
	}
	return "", apperrors.Newf(apperrors.KindInternal, "referral_code_exhausted", "could not allocate a unique referral code")
}
