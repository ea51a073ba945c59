package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cmd(typ CommandType, at time.Time) *Command {
	return &Command{
		Ref:        uuid.New(),
		At:         at.UnixNano(),
		Type:       typ,
		PersonalID: adaID,
	}
}

func TestBank_ApplyUsesCommandTime(t *testing.T) {
	b := NewBank()
	at := time.Date(2023, 12, 24, 18, 30, 0, 0, time.UTC)

	create := cmd(CommandCreateCustomer, at)
	create.Name, create.Surname = "Ada", "Lovelace"
	_, err := b.Apply(create)
	require.NoError(t, err)

	out, err := b.Apply(cmd(CommandOpenSavings, at))
	require.NoError(t, err)
	assert.Equal(t, int64(1001), out.AccountID)

	deposit := cmd(CommandDeposit, at)
	deposit.AccountID, deposit.Amount = out.AccountID, 250
	out, err = b.Apply(deposit)
	require.NoError(t, err)
	require.NotNil(t, out.Transaction)
	assert.Equal(t, deposit.Ref, out.Transaction.Ref)
	assert.True(t, out.Transaction.At.Equal(at))
	assert.Equal(t, "250", out.Transaction.Balance.String())
}

func TestBank_ApplyAllCommandTypes(t *testing.T) {
	b := NewBank()
	now := time.Now()

	create := cmd(CommandCreateCustomer, now)
	create.Name, create.Surname = "Ada", "Lovelace"
	_, err := b.Apply(create)
	require.NoError(t, err)

	rename := cmd(CommandRenameCustomer, now)
	rename.Name = "Augusta"
	out, err := b.Apply(rename)
	require.NoError(t, err)
	assert.True(t, out.Changed)

	credit, err := b.Apply(cmd(CommandOpenCredit, now))
	require.NoError(t, err)

	withdraw := cmd(CommandWithdraw, now)
	withdraw.AccountID, withdraw.Amount = credit.AccountID, 6000
	_, err = b.Apply(withdraw)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	withdraw.Amount = 100
	out, err = b.Apply(withdraw)
	require.NoError(t, err)
	assert.Equal(t, "-100", out.Transaction.Amount.String())

	closeCmd := cmd(CommandCloseAccount, now)
	closeCmd.AccountID = credit.AccountID
	out, err = b.Apply(closeCmd)
	require.NoError(t, err)
	require.NotNil(t, out.Closed)
	assert.Equal(t, "-5", out.Closed.Interest.String())

	out, err = b.Apply(cmd(CommandDeleteCustomer, now))
	require.NoError(t, err)
	require.NotNil(t, out.Deletion)
	assert.Equal(t, "Augusta", out.Deletion.Customer.Name)
	assert.Empty(t, out.Deletion.Closed)

	_, err = b.Apply(&Command{Type: 42})
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestCommand_SameRequest(t *testing.T) {
	base := Command{Ref: uuid.New(), Type: CommandDeposit, PersonalID: adaID, AccountID: 1001, Amount: 100}

	retry := base
	retry.At = time.Now().UnixNano()
	retry.Seq = 12
	assert.True(t, base.SameRequest(&retry))

	tests := []struct {
		name   string
		mutate func(*Command)
	}{
		{"type", func(c *Command) { c.Type = CommandWithdraw }},
		{"amount", func(c *Command) { c.Amount = 200 }},
		{"account", func(c *Command) { c.AccountID = 1002 }},
		{"customer", func(c *Command) { c.PersonalID = "19120623-1234" }},
		{"name", func(c *Command) { c.Name = "Ada" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := base
			tt.mutate(&other)
			assert.False(t, base.SameRequest(&other))
		})
	}
}

func TestKindOf_RefConflict(t *testing.T) {
	err := fmt.Errorf("%w: ref reused", ErrRefConflict)
	assert.Equal(t, KindRefConflict, KindOf(err))
	assert.Equal(t, "ref_conflict", KindRefConflict.String())
}

func TestBank_ApplyMovementReportsAccount(t *testing.T) {
	b := NewBank()
	require.NoError(t, b.CreateCustomer("Ada", "Lovelace", adaID))
	id, err := b.CreateSavingsAccount(adaID)
	require.NoError(t, err)

	deposit := cmd(CommandDeposit, time.Now())
	deposit.AccountID, deposit.Amount = id, 300
	out, err := b.Apply(deposit)
	require.NoError(t, err)
	require.NotNil(t, out.Account)
	assert.Equal(t, "300", out.Account.Balance.String())

	withdraw := cmd(CommandWithdraw, time.Now())
	withdraw.AccountID, withdraw.Amount = id, 100
	out, err = b.Apply(withdraw)
	require.NoError(t, err)
	require.NotNil(t, out.Account)
	assert.Equal(t, out.Transaction.Balance.String(), out.Account.Balance.String())
}
