// Package storetest holds the behavioral suite every ledger store backend
// must pass. Backend packages embed StoreSuite and supply NewStore.
package storetest

import (
	"context"
	"errors"
	"sync"

	"github.com/stretchr/testify/suite"

	"idledger/internal/ledger/models"
	"idledger/internal/ledger/store"
	"idledger/pkg/domain"
	"idledger/pkg/platform/sentinel"
)

type StoreSuite struct {
	suite.Suite
	// NewStore returns an empty store. Called before every test.
	NewStore func() store.Store

	Store store.Store
	ctx   context.Context
}

func (s *StoreSuite) SetupTest() {
	s.Require().NotNil(s.NewStore, "NewStore must be set")
	s.Store = s.NewStore()
	s.ctx = context.Background()
}

func (s *StoreSuite) TearDownTest() {
	if s.Store != nil {
		s.Require().NoError(s.Store.Close())
	}
}

func hashOf(b byte) domain.Hash {
	var h domain.Hash
	h[0] = b
	h[31] = b
	return h
}

// NewIdentity builds a valid identity for owner.
func (s *StoreSuite) NewIdentity(owner domain.Address) *models.Identity {
	var key domain.PublicKey
	key[0] = 0x02
	identity, err := models.NewIdentity(owner, hashOf(0xaa), key, 1_000)
	s.Require().NoError(err)
	return identity
}

// TestIdentityRoundTrip verifies identities persist every field, including
// credential order.
func (s *StoreSuite) TestIdentityRoundTrip() {
	s.Run("missing identity is not found", func() {
		err := s.Store.RunInTx(s.ctx, func(tx store.Tx) error {
			_, err := tx.FindIdentity(s.ctx, "SP_MISSING")
			return err
		})
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("saves and finds identity with ordered credentials", func() {
		identity := s.NewIdentity("SP_ROUNDTRIP")
		identity.Credentials = []domain.Hash{hashOf(3), hashOf(1), hashOf(2)}
		s.Require().NoError(s.Store.RunInTx(s.ctx, func(tx store.Tx) error {
			return tx.SaveIdentity(s.ctx, identity)
		}))

		var found *models.Identity
		s.Require().NoError(s.Store.RunInTx(s.ctx, func(tx store.Tx) error {
			var err error
			found, err = tx.FindIdentity(s.ctx, "SP_ROUNDTRIP")
			return err
		}))
		s.Equal(*identity, *found)
	})

	s.Run("empty credential list survives round trip", func() {
		identity := s.NewIdentity("SP_EMPTY")
		s.Require().NoError(s.Store.RunInTx(s.ctx, func(tx store.Tx) error {
			return tx.SaveIdentity(s.ctx, identity)
		}))
		var found *models.Identity
		s.Require().NoError(s.Store.RunInTx(s.ctx, func(tx store.Tx) error {
			var err error
			found, err = tx.FindIdentity(s.ctx, "SP_EMPTY")
			return err
		}))
		s.Empty(found.Credentials)
	})
}

func (s *StoreSuite) TestCredentialAndRequestRoundTrip() {
	credential, err := models.NewCredential(hashOf(5), "SP_ISSUER", 5_000, "education", 1_000)
	s.Require().NoError(err)
	request, err := models.NewDisclosureRequest(hashOf(6), "SP_REQUESTER", []string{"name", "age"})
	s.Require().NoError(err)

	s.Require().NoError(s.Store.RunInTx(s.ctx, func(tx store.Tx) error {
		if err := tx.SaveCredential(s.ctx, credential); err != nil {
			return err
		}
		return tx.SaveDisclosureRequest(s.ctx, request)
	}))

	var foundCred *models.Credential
	var foundReq *models.DisclosureRequest
	s.Require().NoError(s.Store.RunInTx(s.ctx, func(tx store.Tx) error {
		var err error
		if foundCred, err = tx.FindCredential(s.ctx, hashOf(5)); err != nil {
			return err
		}
		foundReq, err = tx.FindDisclosureRequest(s.ctx, hashOf(6))
		return err
	}))
	s.Equal(*credential, *foundCred)
	s.Equal(*request, *foundReq)

	err = s.Store.RunInTx(s.ctx, func(tx store.Tx) error {
		_, err := tx.FindCredential(s.ctx, hashOf(7))
		return err
	})
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	err = s.Store.RunInTx(s.ctx, func(tx store.Tx) error {
		_, err := tx.FindDisclosureRequest(s.ctx, hashOf(7))
		return err
	})
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

// TestFailedTxLeavesNoTrace verifies a rejected apply has no visible writes.
func (s *StoreSuite) TestFailedTxLeavesNoTrace() {
	boom := errors.New("validation failed")
	err := s.Store.RunInTx(s.ctx, func(tx store.Tx) error {
		if err := tx.SaveIdentity(s.ctx, s.NewIdentity("SP_ROLLBACK")); err != nil {
			return err
		}
		credential, err := models.NewCredential(hashOf(9), "SP_ROLLBACK", 5_000, "education", 1_000)
		if err != nil {
			return err
		}
		if err := tx.SaveCredential(s.ctx, credential); err != nil {
			return err
		}
		return boom
	})
	s.Require().ErrorIs(err, boom)

	err = s.Store.RunInTx(s.ctx, func(tx store.Tx) error {
		if _, err := tx.FindIdentity(s.ctx, "SP_ROLLBACK"); !errors.Is(err, sentinel.ErrNotFound) {
			return errors.New("identity leaked from failed tx")
		}
		if _, err := tx.FindCredential(s.ctx, hashOf(9)); !errors.Is(err, sentinel.ErrNotFound) {
			return errors.New("credential leaked from failed tx")
		}
		return nil
	})
	s.Require().NoError(err)
}

// TestReadYourWrites verifies a tx observes its own staged writes.
func (s *StoreSuite) TestReadYourWrites() {
	err := s.Store.RunInTx(s.ctx, func(tx store.Tx) error {
		identity := s.NewIdentity("SP_RYW")
		if err := tx.SaveIdentity(s.ctx, identity); err != nil {
			return err
		}
		found, err := tx.FindIdentity(s.ctx, "SP_RYW")
		if err != nil {
			return err
		}
		if found.Owner != identity.Owner {
			return errors.New("unexpected identity")
		}
		return nil
	})
	s.Require().NoError(err)
}

// TestSerialApply verifies concurrent read-modify-write applies do not lose
// updates.
func (s *StoreSuite) TestSerialApply() {
	s.Require().NoError(s.Store.RunInTx(s.ctx, func(tx store.Tx) error {
		return tx.SaveIdentity(s.ctx, s.NewIdentity("SP_SERIAL"))
	}))

	var wg sync.WaitGroup
	errs := make(chan error, models.MaxCredentialsPerIdentity)
	for i := range models.MaxCredentialsPerIdentity {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.Store.RunInTx(s.ctx, func(tx store.Tx) error {
				identity, err := tx.FindIdentity(s.ctx, "SP_SERIAL")
				if err != nil {
					return err
				}
				next, err := identity.WithCredential(hashOf(byte(i + 1)))
				if err != nil {
					return err
				}
				return tx.SaveIdentity(s.ctx, &next)
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.Require().NoError(err)
	}

	var found *models.Identity
	s.Require().NoError(s.Store.RunInTx(s.ctx, func(tx store.Tx) error {
		var err error
		found, err = tx.FindIdentity(s.ctx, "SP_SERIAL")
		return err
	}))
	s.Len(found.Credentials, models.MaxCredentialsPerIdentity)
}

func (s *StoreSuite) advance(now uint64) uint64 {
	var clock uint64
	s.Require().NoError(s.Store.RunInTx(s.ctx, func(tx store.Tx) error {
		var err error
		clock, err = tx.AdvanceClock(s.ctx, now)
		return err
	}))
	return clock
}

// TestClockNeverMovesBackwards verifies an apply never observes a clock
// earlier than one a previous apply observed.
func (s *StoreSuite) TestClockNeverMovesBackwards() {
	s.Run("a stale now is raised to the latest clock", func() {
		s.Equal(uint64(1_000), s.advance(1_000))
		s.Equal(uint64(1_000), s.advance(999))
		s.Equal(uint64(1_005), s.advance(1_005))
	})

	s.Run("advance survives a failed apply without its writes", func() {
		boom := errors.New("rejected")
		err := s.Store.RunInTx(s.ctx, func(tx store.Tx) error {
			if _, err := tx.AdvanceClock(s.ctx, 2_000); err != nil {
				return err
			}
			if err := tx.SaveIdentity(s.ctx, s.NewIdentity("SP_CLOCK_ROLLBACK")); err != nil {
				return err
			}
			return boom
		})
		s.Require().ErrorIs(err, boom)

		s.Equal(uint64(2_000), s.advance(1_500))
		err = s.Store.RunInTx(s.ctx, func(tx store.Tx) error {
			_, err := tx.FindIdentity(s.ctx, "SP_CLOCK_ROLLBACK")
			return err
		})
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("concurrent applies see clocks in apply order", func() {
		var (
			mu       sync.Mutex
			observed []uint64
			wg       sync.WaitGroup
		)
		for i := range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				// Stamps deliberately disagree with arrival order.
				now := uint64(3_000 + (i*7)%20)
				err := s.Store.RunInTx(s.ctx, func(tx store.Tx) error {
					clock, err := tx.AdvanceClock(s.ctx, now)
					if err != nil {
						return err
					}
					mu.Lock()
					observed = append(observed, clock)
					mu.Unlock()
					return nil
				})
				s.NoError(err)
			}()
		}
		wg.Wait()

		s.Len(observed, 20)
		for i := 1; i < len(observed); i++ {
			s.GreaterOrEqual(observed[i], observed[i-1], "apply %d saw an earlier clock", i)
		}
	})
}
