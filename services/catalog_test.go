package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"otadmin/models"
)

func TestReasonCatalog(t *testing.T) {
	f := newFixture(t)
	catalog := NewReasonCatalog(f.db)

	_, err := catalog.Create(ctx(), ReasonInput{Type: models.DecisionReject, Label: "No prior approval", Sort: 2})
	require.NoError(t, err)
	_, err = catalog.Create(ctx(), ReasonInput{Type: models.DecisionReject, Label: "Duplicate claim", Sort: 1})
	require.NoError(t, err)
	hidden, err := catalog.Create(ctx(), ReasonInput{Type: models.DecisionApprove, Label: "Verified", Active: ptr(false)})
	require.NoError(t, err)

	_, err = catalog.Create(ctx(), ReasonInput{Type: "MAYBE", Label: "x"})
	assert.True(t, IsValidation(err))
	_, err = catalog.Create(ctx(), ReasonInput{Type: models.DecisionApprove, Label: "  "})
	assert.True(t, IsValidation(err))

	rejects, err := catalog.List(ctx(), models.DecisionReject, nil)
	require.NoError(t, err)
	require.Len(t, rejects, 2)
	assert.Equal(t, "Duplicate claim", rejects[0].Label)

	active, err := catalog.List(ctx(), "", ptr(true))
	require.NoError(t, err)
	assert.Len(t, active, 2)

	inactive, err := catalog.List(ctx(), "", ptr(false))
	require.NoError(t, err)
	require.Len(t, inactive, 1)
	assert.Equal(t, hidden.ID, inactive[0].ID)

	require.NoError(t, catalog.Delete(ctx(), hidden.ID))
	assert.True(t, IsNotFound(catalog.Delete(ctx(), hidden.ID)))
}

func TestEmployeeDirectory(t *testing.T) {
	f := newFixture(t)
	dir := NewEmployeeDirectory(f.db)

	emp, err := dir.Create(ctx(), EmployeeInput{EmpID: " E100 ", Name: "Dana Perera", Email: "Dana@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, "E100", emp.EmpID)
	assert.Equal(t, "dana@example.com", emp.Email)

	_, err = dir.Create(ctx(), EmployeeInput{EmpID: "E100", Name: "Other"})
	assert.True(t, IsConflict(err))
	_, err = dir.Create(ctx(), EmployeeInput{EmpID: "E101", Name: "Bad", Email: "not-an-email"})
	assert.True(t, IsValidation(err))
	_, err = dir.Create(ctx(), EmployeeInput{EmpID: "E102"})
	assert.True(t, IsValidation(err))

	page, err := dir.List(ctx(), "perera", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, emp.ID, page.Items[0].ID)

	all, err := dir.List(ctx(), "", 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 4, all.Total)

	got, err := dir.Get(ctx(), emp.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dana Perera", got.Name)

	_, err = dir.Get(ctx(), 9999)
	assert.True(t, IsNotFound(err))
}
