package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func populatedBank(t *testing.T) *Bank {
	t.Helper()
	b := newTestBank(t)
	require.NoError(t, b.CreateCustomer("Alan", "Turing", "191206231234"))

	savings, _ := b.CreateSavingsAccount(adaID)
	credit, _ := b.CreateCreditAccount(adaID)
	closed, _ := b.CreateSavingsAccount("191206231234")
	other, _ := b.CreateSavingsAccount("191206231234")

	require.NoError(t, b.Deposit(adaID, savings, 500))
	require.NoError(t, b.Withdraw(adaID, savings, 100))
	require.NoError(t, b.Withdraw(adaID, savings, 100))
	require.NoError(t, b.Withdraw(adaID, credit, 2500))
	require.NoError(t, b.Deposit("191206231234", other, 42))
	_, err := b.CloseAccount("191206231234", closed)
	require.NoError(t, err)
	return b
}

func requireSameSnapshot(t *testing.T, want, got Snapshot) {
	t.Helper()
	wantJSON, err := json.Marshal(want)
	require.NoError(t, err)
	gotJSON, err := json.Marshal(got)
	require.NoError(t, err)
	require.JSONEq(t, string(wantJSON), string(gotJSON))
}

func TestSnapshot_RoundTrip(t *testing.T) {
	b := populatedBank(t)
	snap := b.Snapshot()
	assert.Equal(t, int64(1004), snap.LastAccountID)

	restored := NewBank()
	require.NoError(t, restored.Restore(snap))
	requireSameSnapshot(t, snap, restored.Snapshot())

	// hasWithdrawn 也要還原：下一次提款須加收手續費
	acc, ok := restored.lookupAccount(adaID, 1001)
	require.True(t, ok)
	assert.True(t, acc.HasWithdrawn())
	require.NoError(t, restored.Withdraw(adaID, 1001, 100))
	trans, _ := restored.Transactions(adaID, 1001)
	assert.True(t, trans[len(trans)-1].Amount.Equal(dec("-102")))

	// 還原後新帳戶編號不與既有 (含已關閉) 帳戶衝突
	id, err := restored.CreateCreditAccount("191206231234")
	require.NoError(t, err)
	assert.Equal(t, int64(1005), id)
}

func TestSnapshot_JSONRoundTrip(t *testing.T) {
	b := populatedBank(t)
	raw, err := json.Marshal(b.Snapshot())
	require.NoError(t, err)

	var decoded Snapshot
	require.NoError(t, json.Unmarshal(raw, &decoded))

	restored := NewBank()
	require.NoError(t, restored.Restore(decoded))
	requireSameSnapshot(t, b.Snapshot(), restored.Snapshot())
}

func TestSnapshot_RestoreLiftsCounter(t *testing.T) {
	b := populatedBank(t)
	snap := b.Snapshot()
	snap.LastAccountID = 0

	restored := NewBank()
	require.NoError(t, restored.Restore(snap))
	assert.Equal(t, int64(1004), restored.LastAccountID())
}

func TestSnapshot_CarriesAppliedSeq(t *testing.T) {
	b := populatedBank(t)
	_, err := b.Apply(&Command{Ref: uuid.New(), Seq: 7, Type: CommandOpenSavings, PersonalID: adaID})
	require.NoError(t, err)
	// 失敗的指令同樣推進序號
	_, err = b.Apply(&Command{Ref: uuid.New(), Seq: 9, Type: CommandOpenSavings, PersonalID: "nobody"})
	require.ErrorIs(t, err, ErrCustomerNotFound)
	assert.Equal(t, int64(9), b.AppliedSeq())

	snap := b.Snapshot()
	assert.Equal(t, int64(9), snap.AppliedSeq)

	restored := NewBank()
	require.NoError(t, restored.Restore(snap))
	assert.Equal(t, int64(9), restored.AppliedSeq())
}

func TestSnapshot_RestoreRejectsMalformed(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Snapshot)
	}{
		{"version", func(s *Snapshot) { s.Version = 99 }},
		{"duplicate customer", func(s *Snapshot) { s.Customers = append(s.Customers, s.Customers[0]) }},
		{"duplicate account", func(s *Snapshot) {
			s.Customers[1].Accounts = append(s.Customers[1].Accounts, s.Customers[0].Accounts[0])
		}},
		{"unknown type", func(s *Snapshot) { s.Customers[0].Accounts[0].Type = "checking" }},
		{"balance drift", func(s *Snapshot) { s.Customers[0].Accounts[0].Balance = dec("1") }},
		{"negative applied seq", func(s *Snapshot) { s.AppliedSeq = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := populatedBank(t).Snapshot()
			tt.mutate(&snap)

			target := newTestBank(t)
			before := target.Snapshot()

			err := target.Restore(snap)
			assert.ErrorIs(t, err, ErrMalformedSnapshot)
			assert.Equal(t, KindPersistence, KindOf(err))
			requireSameSnapshot(t, before, target.Snapshot())
		})
	}
}
