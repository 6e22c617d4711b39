package payment

import (
	"github.com/ManuelReschke/FreelanceFlow/app/models"
)

// Action names a state-changing operation on a payment.
type Action string

const (
	ActionUploadReceipt        Action = "upload_receipt"
	ActionUploadSignedDocument Action = "upload_signed_document"
	ActionUpdateStatus         Action = "update_status"
)

// Party is the side of a payment allowed to perform an action.
type Party int

const (
	PartySender Party = iota
	PartyReceiver
)

// Transition describes who may run an action and from which status.
// An empty From means any status; an empty To means caller-chosen.
type Transition struct {
	Role  models.UserRole
	Party Party
	From  models.PaymentStatus
	To    models.PaymentStatus
}

var transitions = map[Action]Transition{
	ActionUploadReceipt: {
		Role:  models.ROLE_PAYER,
		Party: PartySender,
		From:  models.PaymentStatusPending,
		To:    models.PaymentStatusReceiptUploaded,
	},
	ActionUploadSignedDocument: {
		Role:  models.ROLE_FREELANCER,
		Party: PartyReceiver,
		From:  models.PaymentStatusReceiptUploaded,
		To:    models.PaymentStatusDocumentSigned,
	},
	ActionUpdateStatus: {
		Role:  models.ROLE_PAYER,
		Party: PartySender,
	},
}

// ManualTargets are the statuses a sender may set through UpdateStatus.
var ManualTargets = []models.PaymentStatus{
	models.PaymentStatusPending,
	models.PaymentStatusCompleted,
	models.PaymentStatusCancelled,
}

// TransitionFor returns the rule for action.
func TransitionFor(action Action) (Transition, bool) {
	t, ok := transitions[action]
	return t, ok
}

func isManualTarget(s models.PaymentStatus) bool {
	for _, t := range ManualTargets {
		if s == t {
			return true
		}
	}
	return false
}

// strictAllows is the tightened manual status rule.
func strictAllows(p *models.Payment, to models.PaymentStatus) bool {
	switch to {
	case models.PaymentStatusCompleted:
		if p.Status == models.PaymentStatusDocumentSigned {
			return true
		}
		return p.Status == models.PaymentStatusReceiptUploaded && !p.RequiresSignedDocument
	case models.PaymentStatusCancelled:
		return !p.Status.IsTerminal()
	default:
		return false
	}
}

func (t Transition) isParty(p *models.Payment, userID string) bool {
	if t.Party == PartySender {
		return p.SenderID == userID
	}
	return p.ReceiverID == userID
}
