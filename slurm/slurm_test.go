//go:build unit

package slurm_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/comet-hpc/comet/mocks"
	"github.com/comet-hpc/comet/remote"
	"github.com/comet-hpc/comet/slurm"
)

type ServiceTestSuite struct {
	suite.Suite
	executor *mocks.Executor
	impl     *slurm.Slurm
}

func (suite *ServiceTestSuite) BeforeTest(suiteName, testName string) {
	suite.executor = mocks.NewExecutor(suite.T())
	suite.impl = slurm.NewSlurm(suite.executor)
}

func (suite *ServiceTestSuite) TestSubmit() {
	// Arrange
	req := &slurm.SubmitRequest{
		WorkDir:    "/scratch/jobs/gp_alice_20250101T000000_deadbeef",
		ScriptPath: "/scratch/jobs/gp_alice_20250101T000000_deadbeef/job.slurm",
	}
	suite.executor.On(
		"Exec",
		mock.Anything,
		mock.MatchedBy(func(cmd string) bool {
			return strings.Contains(cmd, "sbatch") &&
				strings.Contains(cmd, req.WorkDir) &&
				strings.Contains(cmd, req.ScriptPath)
		}),
	).Return(remote.Result{Stdout: "Submitted batch job 482193\n"}, nil)
	ctx := context.Background()

	// Act
	jobID, err := suite.impl.Submit(ctx, req)

	// Assert
	suite.NoError(err)
	suite.Equal("482193", jobID)
	suite.executor.AssertExpectations(suite.T())
}

func (suite *ServiceTestSuite) TestSubmitNonzeroExit() {
	// Arrange
	req := &slurm.SubmitRequest{
		WorkDir:    "/scratch/jobs/a",
		ScriptPath: "/scratch/jobs/a/job.slurm",
	}
	suite.executor.On(
		"Exec",
		mock.Anything,
		mock.MatchedBy(func(cmd string) bool {
			return strings.Contains(cmd, "sbatch")
		}),
	).Return(remote.Result{
		ExitCode: 1,
		Stderr:   "sbatch: error: invalid partition specified: nope\n",
	}, nil)
	ctx := context.Background()

	// Act
	_, err := suite.impl.Submit(ctx, req)

	// Assert
	suite.Error(err)
	suite.True(slurm.IsSubmissionError(err))
	subErr := err.(*slurm.SubmissionError)
	suite.False(subErr.Mismatch)
	suite.Contains(subErr.Stderr, "invalid partition")
	suite.executor.AssertExpectations(suite.T())
}

func (suite *ServiceTestSuite) TestSubmitProtocolMismatch() {
	// Arrange
	req := &slurm.SubmitRequest{
		WorkDir:    "/scratch/jobs/a",
		ScriptPath: "/scratch/jobs/a/job.slurm",
	}
	suite.executor.On(
		"Exec",
		mock.Anything,
		mock.MatchedBy(func(cmd string) bool {
			return strings.Contains(cmd, "sbatch")
		}),
	).Return(remote.Result{Stdout: "error: invalid partition\n"}, nil)
	ctx := context.Background()

	// Act
	_, err := suite.impl.Submit(ctx, req)

	// Assert
	suite.Error(err)
	suite.True(slurm.IsSubmissionError(err))
	suite.True(err.(*slurm.SubmissionError).Mismatch)
	suite.executor.AssertExpectations(suite.T())
}

func (suite *ServiceTestSuite) TestQueueState() {
	// Arrange
	suite.executor.On(
		"Exec",
		mock.Anything,
		mock.MatchedBy(func(cmd string) bool {
			return strings.Contains(cmd, "squeue") &&
				strings.Contains(cmd, "--job=482193")
		}),
	).Return(remote.Result{Stdout: "RUNNING\n"}, nil)
	ctx := context.Background()

	// Act
	state, err := suite.impl.QueueState(ctx, "482193")

	// Assert
	suite.NoError(err)
	suite.Equal("RUNNING", state)
	suite.executor.AssertExpectations(suite.T())
}

func (suite *ServiceTestSuite) TestStatusFallsBackToAccounting() {
	// Arrange: squeue has forgotten the job, sacct still has the record.
	suite.executor.On(
		"Exec",
		mock.Anything,
		mock.MatchedBy(func(cmd string) bool {
			return strings.Contains(cmd, "squeue")
		}),
	).Return(remote.Result{ExitCode: 1, Stderr: "slurm_load_jobs error: Invalid job id specified\n"}, nil)
	suite.executor.On(
		"Exec",
		mock.Anything,
		mock.MatchedBy(func(cmd string) bool {
			return strings.Contains(cmd, "sacct") &&
				strings.Contains(cmd, "-j 482193")
		}),
	).Return(remote.Result{Stdout: "  COMPLETED\n"}, nil)
	ctx := context.Background()

	// Act
	status, err := suite.impl.Status(ctx, "482193")

	// Assert
	suite.NoError(err)
	suite.Equal(slurm.Completed, status)
	suite.executor.AssertExpectations(suite.T())
}

func (suite *ServiceTestSuite) TestStatusUnknownWhenNoRecord() {
	// Arrange
	suite.executor.On(
		"Exec",
		mock.Anything,
		mock.MatchedBy(func(cmd string) bool { return strings.Contains(cmd, "squeue") }),
	).Return(remote.Result{}, nil)
	suite.executor.On(
		"Exec",
		mock.Anything,
		mock.MatchedBy(func(cmd string) bool { return strings.Contains(cmd, "sacct") }),
	).Return(remote.Result{}, nil)
	ctx := context.Background()

	// Act
	status, err := suite.impl.Status(ctx, "999999")

	// Assert
	suite.NoError(err)
	suite.Equal(slurm.Unknown, status)
	suite.executor.AssertExpectations(suite.T())
}

func (suite *ServiceTestSuite) TestCancel() {
	// Arrange
	suite.executor.On(
		"Exec",
		mock.Anything,
		mock.MatchedBy(func(cmd string) bool {
			return strings.Contains(cmd, "scancel") &&
				strings.Contains(cmd, "482193")
		}),
	).Return(remote.Result{}, nil)
	ctx := context.Background()

	// Act
	err := suite.impl.Cancel(ctx, "482193")

	// Assert
	suite.NoError(err)
	suite.executor.AssertExpectations(suite.T())
}

func (suite *ServiceTestSuite) TestCancelAlreadyFinished() {
	// Arrange: scancel answering "not found" is still a success.
	suite.executor.On(
		"Exec",
		mock.Anything,
		mock.MatchedBy(func(cmd string) bool { return strings.Contains(cmd, "scancel") }),
	).Return(remote.Result{
		ExitCode: 1,
		Stderr:   "scancel: error: Kill job error on job id 482193: Invalid job id specified\n",
	}, nil)
	ctx := context.Background()

	// Act
	err := suite.impl.Cancel(ctx, "482193")

	// Assert
	suite.NoError(err)
	suite.executor.AssertExpectations(suite.T())
}

func (suite *ServiceTestSuite) TestHealthCheck() {
	// Arrange
	suite.executor.On(
		"Exec",
		mock.Anything,
		mock.MatchedBy(func(cmd string) bool { return strings.Contains(cmd, "squeue") }),
	).Return(remote.Result{Stdout: ""}, nil)
	ctx := context.Background()

	// Act
	err := suite.impl.HealthCheck(ctx)

	// Assert
	suite.NoError(err)
	suite.executor.AssertExpectations(suite.T())
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, &ServiceTestSuite{})
}
