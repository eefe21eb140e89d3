package tx

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "fellowship/pkg/domain-errors"
)

type LockRunnerSuite struct {
	suite.Suite
	runner *LockRunner
}

func TestLockRunnerSuite(t *testing.T) {
	suite.Run(t, new(LockRunnerSuite))
}

func (s *LockRunnerSuite) SetupTest() {
	s.runner = NewLockRunner()
}

func (s *LockRunnerSuite) TestNestedCallsJoinOuterTransaction() {
	calls := 0
	err := s.runner.RunInTx(context.Background(), func(ctx context.Context) error {
		calls++
		return s.runner.RunInTx(ctx, func(context.Context) error {
			calls++
			return nil
		})
	})
	s.Require().NoError(err)
	s.Equal(2, calls)
}

func (s *LockRunnerSuite) TestErrorsPropagate() {
	boom := errors.New("boom")
	err := s.runner.RunInTx(context.Background(), func(context.Context) error { return boom })
	s.ErrorIs(err, boom)
}

func (s *LockRunnerSuite) TestFailedCallbackKeepsEarlierWrites() {
	state := map[string]int{}
	err := s.runner.RunInTx(context.Background(), func(context.Context) error {
		state["messages"] = 0
		return errors.New("invite purge failed")
	})
	s.Require().Error(err)
	s.Contains(state, "messages", "no rollback")
}

func (s *LockRunnerSuite) TestCancelledContextAborts() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.runner.RunInTx(ctx, func(context.Context) error {
		called = true
		return nil
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
	s.False(called)
}

func (s *LockRunnerSuite) TestSerializesConcurrentCallers() {
	const goroutines = 50
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.runner.RunInTx(context.Background(), func(context.Context) error {
				current := counter
				counter = current + 1
				return nil
			})
		}()
	}
	wg.Wait()
	s.Equal(goroutines, counter)
}

func (s *LockRunnerSuite) TestSeparateRunnersDoNotShareLock() {
	other := NewLockRunner()
	err := s.runner.RunInTx(context.Background(), func(ctx context.Context) error {
		return other.RunInTx(ctx, func(context.Context) error { return nil })
	})
	s.NoError(err)
}
