package crm

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/loanmesh/core"
)

func TestDirectory_Lookup(t *testing.T) {
	d := NewDemoDirectory()

	p, err := d.LookupCustomer(context.Background(), "cust001")
	require.NoError(t, err)
	assert.Equal(t, "Rahul Sharma", p.Name)

	// Returned profiles are copies.
	p.Name = "changed"
	again, err := d.LookupCustomer(context.Background(), "CUST001")
	require.NoError(t, err)
	assert.Equal(t, "Rahul Sharma", again.Name)

	_, err = d.LookupCustomer(context.Background(), "CUST999")
	assert.ErrorIs(t, err, core.ErrCustomerNotFound)

	assert.Equal(t, []string{"CUST001", "CUST002", "CUST003", "CUST004", "CUST005"}, d.IDs())
}

func TestDirectory_VerifyAddress(t *testing.T) {
	d := NewDemoDirectory()
	ctx := context.Background()

	res, err := d.VerifyAddress(ctx, "CUST001", "12 MG Road, Indiranagar, Bengaluru 560038")
	require.NoError(t, err)
	assert.True(t, res.Verified)
	assert.Empty(t, res.Mismatches)

	res, err = d.VerifyAddress(ctx, "CUST001", "45 Park Street, Kolkata")
	require.NoError(t, err)
	assert.False(t, res.Verified)
	require.Len(t, res.Mismatches, 1)
	assert.Equal(t, "city", res.Mismatches[0].Field)
	assert.Equal(t, "Bengaluru", res.Mismatches[0].OnFile)

	res, err = d.VerifyAddress(ctx, "CUST001", "MG Road, Bengaluru 560001")
	require.NoError(t, err)
	assert.False(t, res.Verified)
	require.Len(t, res.Mismatches, 1)
	assert.Equal(t, core.Mismatch{Field: "pincode", Provided: "560001", OnFile: "560038"}, res.Mismatches[0])

	_, err = d.VerifyAddress(ctx, "CUST999", "anything")
	assert.ErrorIs(t, err, core.ErrCustomerNotFound)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "customers.yaml")
	content := `customers:
  - id: CUST100
    name: Test User
    phone: "9000000000"
    city: Pune
    pincode: "411001"
    credit_score: 710
    pre_approved_limit: 150000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	d, err := LoadFile(path)
	require.NoError(t, err)
	p, err := d.LookupCustomer(context.Background(), "CUST100")
	require.NoError(t, err)
	assert.Equal(t, 710, p.CreditScore)
	assert.Equal(t, 150000.0, p.PreApprovedLimit)
	assert.Equal(t, "9000000000", p.Phone)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("customers:\n  - name: no id\n"), 0o600))
	_, err = LoadFile(bad)
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
