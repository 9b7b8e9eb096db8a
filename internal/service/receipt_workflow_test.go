package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/campushq/college-fees-api/internal/models"
)

func teacherCtx(studentID, teacherID string) ReceiptContext {
	return ReceiptContext{StudentID: studentID, ClassTeacherID: &teacherID}
}

func TestWorkflowSetFeeStructureAdminOnly(t *testing.T) {
	w := NewReceiptWorkflow()
	assert.True(t, w.CanSetFeeStructure(Actor{UserID: "u1", Role: models.RoleAdmin}))
	assert.False(t, w.CanSetFeeStructure(Actor{UserID: "u2", Role: models.RoleFaculty}))
	assert.False(t, w.CanSetFeeStructure(Actor{UserID: "u3", Role: models.RoleStudent, StudentID: "s1"}))
	assert.False(t, w.CanSetFeeStructure(Actor{UserID: "u4", Role: models.RoleParent, StudentID: "s1"}))
}

func TestWorkflowViewStudentFees(t *testing.T) {
	w := NewReceiptWorkflow()
	rc := teacherCtx("s1", "t1")

	assert.True(t, w.CanViewStudentFees(Actor{UserID: "admin", Role: models.RoleAdmin}, rc))
	assert.True(t, w.CanViewStudentFees(Actor{UserID: "t1", Role: models.RoleFaculty}, rc))
	assert.False(t, w.CanViewStudentFees(Actor{UserID: "t2", Role: models.RoleFaculty}, rc))
	assert.True(t, w.CanViewStudentFees(Actor{UserID: "u1", Role: models.RoleStudent, StudentID: "s1"}, rc))
	assert.False(t, w.CanViewStudentFees(Actor{UserID: "u1", Role: models.RoleStudent, StudentID: "s2"}, rc))
	assert.True(t, w.CanViewStudentFees(Actor{UserID: "p1", Role: models.RoleParent, StudentID: "s1"}, rc))
	assert.False(t, w.CanViewStudentFees(Actor{UserID: "p1", Role: models.RoleParent, StudentID: ""}, ReceiptContext{StudentID: ""}))
}

func TestWorkflowRecordReceipt(t *testing.T) {
	w := NewReceiptWorkflow()
	rc := teacherCtx("s1", "t1")

	assert.True(t, w.CanRecordReceipt(Actor{UserID: "admin", Role: models.RoleAdmin}, rc))
	assert.True(t, w.CanRecordReceipt(Actor{UserID: "t1", Role: models.RoleFaculty}, rc))
	assert.False(t, w.CanRecordReceipt(Actor{UserID: "t2", Role: models.RoleFaculty}, rc))
	assert.True(t, w.CanRecordReceipt(Actor{UserID: "u1", Role: models.RoleStudent, StudentID: "s1"}, rc))
	assert.False(t, w.CanRecordReceipt(Actor{UserID: "u1", Role: models.RoleStudent, StudentID: "s2"}, rc))
	assert.False(t, w.CanRecordReceipt(Actor{UserID: "p1", Role: models.RoleParent, StudentID: "s1"}, rc))
}

func TestWorkflowEditAndDeleteReceipt(t *testing.T) {
	w := NewReceiptWorkflow()
	rc := teacherCtx("s1", "t1")

	// class teacher keeps edit/delete rights even on approved receipts
	assert.True(t, w.CanEditReceipt(Actor{UserID: "t1", Role: models.RoleFaculty}, rc))
	assert.True(t, w.CanDeleteReceipt(Actor{UserID: "t1", Role: models.RoleFaculty}, rc))
	assert.False(t, w.CanEditReceipt(Actor{UserID: "t2", Role: models.RoleFaculty}, rc))
	assert.False(t, w.CanEditReceipt(Actor{UserID: "u1", Role: models.RoleStudent, StudentID: "s1"}, rc))
	assert.False(t, w.CanDeleteReceipt(Actor{UserID: "p1", Role: models.RoleParent, StudentID: "s1"}, rc))
	assert.True(t, w.CanEditReceipt(Actor{UserID: "admin", Role: models.RoleAdmin}, rc))
}

func TestWorkflowSetReceiptState(t *testing.T) {
	w := NewReceiptWorkflow()
	rc := teacherCtx("s1", "t1")
	admin := Actor{UserID: "admin", Role: models.RoleAdmin}
	classTeacher := Actor{UserID: "t1", Role: models.RoleFaculty}
	otherFaculty := Actor{UserID: "t2", Role: models.RoleFaculty}
	student := Actor{UserID: "u1", Role: models.RoleStudent, StudentID: "s1"}

	// admin runs every legal transition including reverts
	assert.True(t, w.CanSetReceiptState(admin, rc, models.ReceiptPending, models.ReceiptApproved))
	assert.True(t, w.CanSetReceiptState(admin, rc, models.ReceiptPending, models.ReceiptRejected))
	assert.True(t, w.CanSetReceiptState(admin, rc, models.ReceiptApproved, models.ReceiptPending))
	assert.True(t, w.CanSetReceiptState(admin, rc, models.ReceiptRejected, models.ReceiptPending))
	assert.False(t, w.CanSetReceiptState(admin, rc, models.ReceiptApproved, models.ReceiptRejected))
	assert.False(t, w.CanSetReceiptState(admin, rc, models.ReceiptRejected, models.ReceiptApproved))

	// class teacher may only approve pending receipts
	assert.True(t, w.CanSetReceiptState(classTeacher, rc, models.ReceiptPending, models.ReceiptApproved))
	assert.False(t, w.CanSetReceiptState(classTeacher, rc, models.ReceiptPending, models.ReceiptRejected))
	assert.False(t, w.CanSetReceiptState(classTeacher, rc, models.ReceiptApproved, models.ReceiptPending))
	assert.False(t, w.CanSetReceiptState(otherFaculty, rc, models.ReceiptPending, models.ReceiptApproved))

	assert.False(t, w.CanSetReceiptState(student, rc, models.ReceiptPending, models.ReceiptApproved))
}

func TestValidTransition(t *testing.T) {
	assert.True(t, ValidTransition(models.ReceiptPending, models.ReceiptApproved))
	assert.True(t, ValidTransition(models.ReceiptPending, models.ReceiptRejected))
	assert.True(t, ValidTransition(models.ReceiptApproved, models.ReceiptPending))
	assert.True(t, ValidTransition(models.ReceiptRejected, models.ReceiptPending))
	assert.False(t, ValidTransition(models.ReceiptApproved, models.ReceiptRejected))
	assert.False(t, ValidTransition(models.ReceiptRejected, models.ReceiptApproved))
	assert.False(t, ValidTransition(models.ReceiptPending, models.ReceiptPending))
}
