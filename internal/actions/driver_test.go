package actions_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"github.com/nicholas-fedor/tagwatch/internal/actions"
	"github.com/nicholas-fedor/tagwatch/pkg/registry"
	"github.com/nicholas-fedor/tagwatch/pkg/types"
	"github.com/nicholas-fedor/tagwatch/pkg/types/mocks"
)

func resolution(tag types.ImageTag) types.Resolution {
	return types.Resolution{
		Latest:  types.ImageRecord{Tag: tag, PublishedAt: time.Now()},
		Listed:  3,
		Matched: 3,
	}
}

var _ = ginkgo.Describe("the reconciliation driver", func() {
	var (
		resolver  *mocks.MockResolver
		puller    *mocks.MockPuller
		restarter *mocks.MockRestarter
		recorder  *mocks.MockRecorder
		deployed  *types.DeployedVersion
		driver    *actions.Driver
	)

	newDriver := func(timeouts actions.Timeouts) *actions.Driver {
		d, err := actions.NewDriver(actions.Dependencies{
			Resolver:  resolver,
			Puller:    puller,
			Restarter: restarter,
			Recorder:  recorder,
		}, deployed, timeouts)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		return d
	}

	ginkgo.BeforeEach(func() {
		resolver = mocks.NewMockResolver(ginkgo.GinkgoT())
		puller = mocks.NewMockPuller(ginkgo.GinkgoT())
		restarter = mocks.NewMockRestarter(ginkgo.GinkgoT())
		recorder = mocks.NewMockRecorder(ginkgo.GinkgoT())
		recorder.EXPECT().Record(mock.Anything, mock.Anything).Return(nil).Maybe()
		deployed = types.NewDeployedVersion("master-100")
		driver = newDriver(actions.Timeouts{})
	})

	ginkgo.It("should refuse to start without collaborators", func() {
		_, err := actions.NewDriver(actions.Dependencies{}, deployed, actions.Timeouts{})
		gomega.Expect(err).To(gomega.HaveOccurred())

		_, err = actions.NewDriver(actions.Dependencies{
			Resolver:  resolver,
			Puller:    puller,
			Restarter: restarter,
		}, nil, actions.Timeouts{})
		gomega.Expect(err).To(gomega.HaveOccurred())
	})

	ginkgo.It("should log the cycle duration in readable form", func() {
		buffer := &bytes.Buffer{}
		logrus.SetOutput(buffer)
		defer logrus.SetOutput(ginkgo.GinkgoWriter)

		resolver.EXPECT().Resolve(mock.Anything).Return(types.Resolution{}, registry.ErrNoMatchingTag).Once()

		driver.Cycle(context.Background())

		gomega.Expect(buffer.String()).To(gomega.ContainSubstring("Reconciliation cycle failed"))
		gomega.Expect(buffer.String()).To(gomega.MatchRegexp(`duration="\d+ (millisecond|second)s?"`))
	})

	ginkgo.When("the deployed version is the latest release", func() {
		ginkgo.It("should neither pull nor restart", func() {
			resolver.EXPECT().Resolve(mock.Anything).Return(resolution("master-100"), nil).Once()

			report := driver.Cycle(context.Background())
			gomega.Expect(report.Err).NotTo(gomega.HaveOccurred())
			gomega.Expect(report.State).To(gomega.Equal(types.StateUpToDate))
			gomega.Expect(report.Updated()).To(gomega.BeFalse())
			puller.AssertNotCalled(ginkgo.GinkgoT(), "Pull", mock.Anything, mock.Anything)
			restarter.AssertNotCalled(ginkgo.GinkgoT(), "Restart", mock.Anything, mock.Anything)
		})
	})

	ginkgo.When("a newer release is published", func() {
		ginkgo.It("should pull and restart exactly once, then adopt the release", func() {
			var order []string

			resolver.EXPECT().Resolve(mock.Anything).Return(resolution("master-101"), nil).Once()
			puller.EXPECT().Pull(mock.Anything, types.ImageTag("master-101")).
				Run(func(context.Context, types.ImageTag) {
					order = append(order, "pull")
					tag, _ := deployed.Get()
					gomega.Expect(tag).To(gomega.Equal(types.ImageTag("master-100")))
				}).Return(nil).Once()
			restarter.EXPECT().Restart(mock.Anything, types.ImageTag("master-101")).
				Run(func(context.Context, types.ImageTag) {
					order = append(order, "restart")
					tag, _ := deployed.Get()
					gomega.Expect(tag).To(gomega.Equal(types.ImageTag("master-100")))
				}).Return(nil).Once()

			report := driver.Cycle(context.Background())
			gomega.Expect(report.Err).NotTo(gomega.HaveOccurred())
			gomega.Expect(report.State).To(gomega.Equal(types.StateRestarted))
			gomega.Expect(report.Previous).To(gomega.Equal(types.ImageTag("master-100")))
			gomega.Expect(report.Target).To(gomega.Equal(types.ImageTag("master-101")))
			gomega.Expect(report.Updated()).To(gomega.BeTrue())
			gomega.Expect(order).To(gomega.Equal([]string{"pull", "restart"}))

			tag, known := driver.Deployed()
			gomega.Expect(known).To(gomega.BeTrue())
			gomega.Expect(tag).To(gomega.Equal(types.ImageTag("master-101")))
		})
	})

	ginkgo.When("the deployed version is unknown", func() {
		ginkgo.It("should perform an initial sync", func() {
			deployed = types.NewDeployedVersion("")
			driver = newDriver(actions.Timeouts{})

			resolver.EXPECT().Resolve(mock.Anything).Return(resolution("master-7"), nil).Once()
			puller.EXPECT().Pull(mock.Anything, types.ImageTag("master-7")).Return(nil).Once()
			restarter.EXPECT().Restart(mock.Anything, types.ImageTag("master-7")).Return(nil).Once()

			report := driver.Cycle(context.Background())
			gomega.Expect(report.Updated()).To(gomega.BeTrue())
			gomega.Expect(report.Previous).To(gomega.BeEmpty())
		})
	})

	ginkgo.When("the restart fails after a successful pull", func() {
		ginkgo.It("should keep the deployed version and retry the same target next cycle", func() {
			resolver.EXPECT().Resolve(mock.Anything).Return(resolution("master-101"), nil).Twice()
			puller.EXPECT().Pull(mock.Anything, types.ImageTag("master-101")).Return(nil).Twice()
			restarter.EXPECT().Restart(mock.Anything, types.ImageTag("master-101")).
				Return(errors.New("exit status 1")).Once()

			report := driver.Cycle(context.Background())
			gomega.Expect(errors.Is(report.Err, actions.ErrUpdate)).To(gomega.BeTrue())
			gomega.Expect(report.State).To(gomega.Equal(types.StateUpdating))
			gomega.Expect(actions.FailureKind(report.Err)).To(gomega.Equal(actions.FailureUpdate))

			tag, _ := driver.Deployed()
			gomega.Expect(tag).To(gomega.Equal(types.ImageTag("master-100")))

			restarter.EXPECT().Restart(mock.Anything, types.ImageTag("master-101")).Return(nil).Once()

			report = driver.Cycle(context.Background())
			gomega.Expect(report.Err).NotTo(gomega.HaveOccurred())
			gomega.Expect(report.Target).To(gomega.Equal(types.ImageTag("master-101")))

			tag, _ = driver.Deployed()
			gomega.Expect(tag).To(gomega.Equal(types.ImageTag("master-101")))
		})
	})

	ginkgo.When("the pull fails", func() {
		ginkgo.It("should not restart and keep the deployed version", func() {
			resolver.EXPECT().Resolve(mock.Anything).Return(resolution("master-101"), nil).Once()
			puller.EXPECT().Pull(mock.Anything, types.ImageTag("master-101")).
				Return(errors.New("manifest unknown")).Once()

			report := driver.Cycle(context.Background())
			gomega.Expect(errors.Is(report.Err, actions.ErrUpdate)).To(gomega.BeTrue())
			restarter.AssertNotCalled(ginkgo.GinkgoT(), "Restart", mock.Anything, mock.Anything)

			tag, _ := driver.Deployed()
			gomega.Expect(tag).To(gomega.Equal(types.ImageTag("master-100")))
		})
	})

	ginkgo.DescribeTable("resolution failures",
		func(err error, kind string) {
			resolver.EXPECT().Resolve(mock.Anything).Return(types.Resolution{}, err).Once()

			report := driver.Cycle(context.Background())
			gomega.Expect(report.Err).To(gomega.MatchError(err))
			gomega.Expect(report.State).To(gomega.Equal(types.StateChecking))
			gomega.Expect(actions.FailureKind(report.Err)).To(gomega.Equal(kind))
			puller.AssertNotCalled(ginkgo.GinkgoT(), "Pull", mock.Anything, mock.Anything)
			restarter.AssertNotCalled(ginkgo.GinkgoT(), "Restart", mock.Anything, mock.Anything)

			tag, _ := driver.Deployed()
			gomega.Expect(tag).To(gomega.Equal(types.ImageTag("master-100")))
		},
		ginkgo.Entry("registry unreachable",
			fmt.Errorf("%w: connection refused", registry.ErrRegistry), actions.FailureRegistry),
		ginkgo.Entry("no release tag",
			fmt.Errorf("%w: master-", registry.ErrNoMatchingTag), actions.FailureNoMatchingTag),
	)

	ginkgo.It("should survive an unbounded run of failures", func() {
		resolver.EXPECT().Resolve(mock.Anything).
			Return(types.Resolution{}, registry.ErrRegistry).Times(50)

		for range 50 {
			gomega.Expect(driver.Cycle(context.Background()).Failed()).To(gomega.BeTrue())
		}

		state, last := driver.Status()
		gomega.Expect(state).To(gomega.Equal(types.StateIdle))
		gomega.Expect(last.Failed()).To(gomega.BeTrue())
	})

	ginkgo.It("should carry the truncation flag into the report", func() {
		res := resolution("master-100")
		res.Truncated = true
		resolver.EXPECT().Resolve(mock.Anything).Return(res, nil).Once()

		gomega.Expect(driver.Cycle(context.Background()).Truncated).To(gomega.BeTrue())
	})

	ginkgo.It("should bound each call with its own timeout", func() {
		driver = newDriver(actions.Timeouts{
			Registry: time.Second,
			Pull:     20 * time.Millisecond,
			Restart:  time.Second,
		})

		resolver.EXPECT().Resolve(mock.Anything).Return(resolution("master-101"), nil).Once()
		puller.EXPECT().Pull(mock.Anything, types.ImageTag("master-101")).
			RunAndReturn(func(ctx context.Context, _ types.ImageTag) error {
				<-ctx.Done()

				return ctx.Err()
			}).Once()

		report := driver.Cycle(context.Background())
		gomega.Expect(errors.Is(report.Err, context.DeadlineExceeded)).To(gomega.BeTrue())
		gomega.Expect(errors.Is(report.Err, actions.ErrUpdate)).To(gomega.BeTrue())
	})

	ginkgo.It("should record every cycle and tolerate recorder failures", func() {
		recorder = mocks.NewMockRecorder(ginkgo.GinkgoT())
		driver = newDriver(actions.Timeouts{})

		resolver.EXPECT().Resolve(mock.Anything).Return(resolution("master-100"), nil).Once()
		recorder.EXPECT().Record(mock.Anything, mock.MatchedBy(func(report types.CycleReport) bool {
			return report.State == types.StateUpToDate
		})).Return(errors.New("disk full")).Once()

		report := driver.Cycle(context.Background())
		gomega.Expect(report.Err).NotTo(gomega.HaveOccurred())
	})
})

var _ = ginkgo.Describe("FailureKind", func() {
	ginkgo.It("should classify unknown errors", func() {
		gomega.Expect(actions.FailureKind(nil)).To(gomega.BeEmpty())
		gomega.Expect(actions.FailureKind(errors.New("boom"))).To(gomega.Equal(actions.FailureOther))
	})
})
