package service

import (
	"github.com/campushq/college-fees-api/internal/models"
)

// Actor is the caller identity the workflow predicates evaluate. StudentID is
// the linked student for STUDENT and PARENT accounts and empty otherwise.
type Actor struct {
	UserID    string
	Role      models.UserRole
	StudentID string
}

// ActorFromClaims builds an Actor from verified JWT claims.
func ActorFromClaims(claims *models.JWTClaims) Actor {
	if claims == nil {
		return Actor{}
	}
	return Actor{
		UserID:    claims.UserID,
		Role:      claims.Role,
		StudentID: claims.LinkedStudentID,
	}
}

// ReceiptContext carries the student and section facts a workflow decision
// needs. ClassTeacherID is nil when the student has no section or the section
// has no class teacher.
type ReceiptContext struct {
	StudentID      string
	ClassTeacherID *string
}

// ReceiptWorkflow holds the authorization predicates for the fee ledger and
// receipt lifecycle. Every predicate is a pure function over the actor and
// context: no I/O, so the matrix is exhaustively testable.
//
// The faculty rules below apply only to the class teacher of the student's
// section; faculty with no homeroom relationship to the student get no fee
// rights at all.
type ReceiptWorkflow struct{}

// NewReceiptWorkflow constructs the workflow.
func NewReceiptWorkflow() *ReceiptWorkflow {
	return &ReceiptWorkflow{}
}

func (w *ReceiptWorkflow) isClassTeacher(actor Actor, rc ReceiptContext) bool {
	return actor.Role == models.RoleFaculty &&
		rc.ClassTeacherID != nil && *rc.ClassTeacherID == actor.UserID
}

// CanSetFeeStructure reports whether the actor may assign or mutate a
// student's fee ledger (assignment, charges, removal).
func (w *ReceiptWorkflow) CanSetFeeStructure(actor Actor) bool {
	return actor.Role == models.RoleAdmin
}

// CanViewStudentFees reports whether the actor may read a student's fee
// breakdown. Students see their own ledger, parents the linked student's.
func (w *ReceiptWorkflow) CanViewStudentFees(actor Actor, rc ReceiptContext) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleFaculty:
		return w.isClassTeacher(actor, rc)
	case models.RoleStudent, models.RoleParent:
		return actor.StudentID != "" && actor.StudentID == rc.StudentID
	default:
		return false
	}
}

// CanRecordReceipt reports whether the actor may create a receipt on the
// student's ledger. Students may submit payments against their own ledger;
// those receipts start pending like any other.
func (w *ReceiptWorkflow) CanRecordReceipt(actor Actor, rc ReceiptContext) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleFaculty:
		return w.isClassTeacher(actor, rc)
	case models.RoleStudent:
		return actor.StudentID != "" && actor.StudentID == rc.StudentID
	default:
		return false
	}
}

// CanEditReceipt reports whether the actor may edit a receipt's payment
// details. The class teacher keeps edit rights even after approval; students
// and parents never edit.
func (w *ReceiptWorkflow) CanEditReceipt(actor Actor, rc ReceiptContext) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleFaculty:
		return w.isClassTeacher(actor, rc)
	default:
		return false
	}
}

// CanDeleteReceipt mirrors CanEditReceipt: deletion is an edit of record.
func (w *ReceiptWorkflow) CanDeleteReceipt(actor Actor, rc ReceiptContext) bool {
	return w.CanEditReceipt(actor, rc)
}

// CanSetReceiptState reports whether the actor may move a receipt between
// approval states. Admins may run every legal transition, including reverting
// approved or rejected receipts to pending. The class teacher may only
// approve pending receipts.
func (w *ReceiptWorkflow) CanSetReceiptState(actor Actor, rc ReceiptContext, from, to models.ApprovalState) bool {
	if !ValidTransition(from, to) {
		return false
	}
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleFaculty:
		return w.isClassTeacher(actor, rc) && from == models.ReceiptPending && to == models.ReceiptApproved
	default:
		return false
	}
}

// ValidTransition reports whether the state change is legal regardless of
// actor. Approved and rejected never swap directly; they pass back through
// pending.
func ValidTransition(from, to models.ApprovalState) bool {
	if from == to {
		return false
	}
	switch from {
	case models.ReceiptPending:
		return to == models.ReceiptApproved || to == models.ReceiptRejected
	case models.ReceiptApproved, models.ReceiptRejected:
		return to == models.ReceiptPending
	default:
		return false
	}
}
