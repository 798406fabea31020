package registry_test

import (
	"context"
	"errors"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/stretchr/testify/mock"

	"github.com/nicholas-fedor/tagwatch/pkg/registry"
	"github.com/nicholas-fedor/tagwatch/pkg/types"
	"github.com/nicholas-fedor/tagwatch/pkg/types/mocks"
)

// fakeCatalog serves a fixed listing and fixed publication times.
type fakeCatalog struct {
	tags        []types.ImageTag
	truncated   bool
	pushed      map[types.ImageTag]time.Time
	listErr     error
	describeErr error
	extra       []types.ImageRecord

	listLimit int
	described []types.ImageTag
}

func (f *fakeCatalog) ListTags(_ context.Context, _ string, limit int) (types.TagPage, error) {
	f.listLimit = limit
	if f.listErr != nil {
		return types.TagPage{}, f.listErr
	}

	return types.TagPage{Tags: f.tags, Truncated: f.truncated}, nil
}

func (f *fakeCatalog) DescribeTags(
	_ context.Context,
	_ string,
	tags []types.ImageTag,
) ([]types.ImageRecord, error) {
	f.described = append(f.described, tags...)
	if f.describeErr != nil {
		return nil, f.describeErr
	}

	records := make([]types.ImageRecord, 0, len(tags))

	for _, tag := range tags {
		if at, ok := f.pushed[tag]; ok {
			records = append(records, types.ImageRecord{Tag: tag, PublishedAt: at})
		}
	}

	return append(records, f.extra...), nil
}

var _ = ginkgo.Describe("the resolver", func() {
	var (
		t0      time.Time
		catalog *fakeCatalog
		pattern *registry.TagPattern
	)

	newResolver := func() *registry.Resolver {
		resolver, err := registry.NewResolver(catalog, registry.Options{
			Repository: "ferrum_node",
			Pattern:    pattern,
		})
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		return resolver
	}

	ginkgo.BeforeEach(func() {
		t0 = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

		var err error
		pattern, err = registry.NewPrefixPattern("master-")
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		catalog = &fakeCatalog{
			tags: []types.ImageTag{"master-100", "master-101", "master-99"},
			pushed: map[types.ImageTag]time.Time{
				"master-100": t0.Add(1 * time.Hour),
				"master-101": t0.Add(3 * time.Hour),
				"master-99":  t0.Add(2 * time.Hour),
			},
		}
	})

	ginkgo.When("configuring", func() {
		ginkgo.It("should reject a missing repository", func() {
			_, err := registry.NewResolver(catalog, registry.Options{Pattern: pattern})
			gomega.Expect(err).To(gomega.HaveOccurred())
		})

		ginkgo.It("should reject a missing pattern", func() {
			_, err := registry.NewResolver(catalog, registry.Options{Repository: "ferrum_node"})
			gomega.Expect(err).To(gomega.HaveOccurred())
		})

		ginkgo.It("should reject a negative limit", func() {
			_, err := registry.NewResolver(catalog, registry.Options{
				Repository: "ferrum_node",
				Pattern:    pattern,
				MaxResults: -1,
			})
			gomega.Expect(err).To(gomega.HaveOccurred())
		})

		ginkgo.It("should apply the default listing limit", func() {
			_, err := newResolver().Resolve(context.Background())
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(catalog.listLimit).To(gomega.Equal(registry.DefaultMaxResults))
		})
	})

	ginkgo.When("tags are published out of order", func() {
		ginkgo.It("should select the tag with the latest publication time", func() {
			resolution, err := newResolver().Resolve(context.Background())
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(resolution.Latest.Tag).To(gomega.Equal(types.ImageTag("master-101")))
			gomega.Expect(resolution.Latest.PublishedAt).To(gomega.Equal(t0.Add(3 * time.Hour)))
			gomega.Expect(resolution.Listed).To(gomega.Equal(3))
			gomega.Expect(resolution.Matched).To(gomega.Equal(3))
			gomega.Expect(resolution.Truncated).To(gomega.BeFalse())
		})

		ginkgo.It("should not depend on numeric build order", func() {
			catalog.pushed["master-99"] = t0.Add(5 * time.Hour)

			resolution, err := newResolver().Resolve(context.Background())
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(resolution.Latest.Tag).To(gomega.Equal(types.ImageTag("master-99")))
		})
	})

	ginkgo.When("the listing contains non-release tags", func() {
		ginkgo.It("should never select them, however recent", func() {
			catalog.tags = append(catalog.tags, "feature-12", "master-abc", "latest", "xmaster-500")
			catalog.pushed["feature-12"] = t0.Add(10 * time.Hour)
			catalog.pushed["master-abc"] = t0.Add(11 * time.Hour)

			resolution, err := newResolver().Resolve(context.Background())
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(resolution.Latest.Tag).To(gomega.Equal(types.ImageTag("master-101")))
			gomega.Expect(resolution.Listed).To(gomega.Equal(7))
			gomega.Expect(resolution.Matched).To(gomega.Equal(3))
			gomega.Expect(catalog.described).NotTo(gomega.ContainElement(types.ImageTag("feature-12")))
		})

		ginkgo.It("should accept tags with a suffix after the build id", func() {
			catalog.tags = append(catalog.tags, "master-102-hotfix")
			catalog.pushed["master-102-hotfix"] = t0.Add(4 * time.Hour)

			resolution, err := newResolver().Resolve(context.Background())
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(resolution.Latest.Tag).To(gomega.Equal(types.ImageTag("master-102-hotfix")))
		})

		ginkgo.It("should describe duplicate tags once", func() {
			catalog.tags = append(catalog.tags, "master-101", "master-100")

			_, err := newResolver().Resolve(context.Background())
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(catalog.described).To(gomega.HaveLen(3))
		})
	})

	ginkgo.When("no tag matches", func() {
		ginkgo.It("should report that no release tag exists", func() {
			catalog.tags = []types.ImageTag{"feature-12", "master-abc"}

			resolution, err := newResolver().Resolve(context.Background())
			gomega.Expect(errors.Is(err, registry.ErrNoMatchingTag)).To(gomega.BeTrue())
			gomega.Expect(errors.Is(err, registry.ErrRegistry)).To(gomega.BeFalse())
			gomega.Expect(resolution.Latest.IsZero()).To(gomega.BeTrue())
			gomega.Expect(resolution.Listed).To(gomega.Equal(2))
			gomega.Expect(catalog.described).To(gomega.BeEmpty())
		})

		ginkgo.It("should treat an empty repository the same way", func() {
			catalog.tags = nil

			_, err := newResolver().Resolve(context.Background())
			gomega.Expect(errors.Is(err, registry.ErrNoMatchingTag)).To(gomega.BeTrue())
		})
	})

	ginkgo.When("publication times are equal", func() {
		ginkgo.It("should prefer the greater build id regardless of order", func() {
			catalog.tags = []types.ImageTag{"master-7", "master-12", "master-9"}
			catalog.pushed = map[types.ImageTag]time.Time{
				"master-7":  t0,
				"master-12": t0,
				"master-9":  t0,
			}

			first, err := newResolver().Resolve(context.Background())
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			catalog.tags = []types.ImageTag{"master-9", "master-7", "master-12"}
			second, err := newResolver().Resolve(context.Background())
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			gomega.Expect(first.Latest.Tag).To(gomega.Equal(types.ImageTag("master-12")))
			gomega.Expect(second.Latest.Tag).To(gomega.Equal(first.Latest.Tag))
		})

		ginkgo.It("should fall back to the tag text when build ids are equal", func() {
			catalog.tags = []types.ImageTag{"master-5-b", "master-5-a"}
			catalog.pushed = map[types.ImageTag]time.Time{
				"master-5-a": t0,
				"master-5-b": t0,
			}

			resolution, err := newResolver().Resolve(context.Background())
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(resolution.Latest.Tag).To(gomega.Equal(types.ImageTag("master-5-b")))
		})
	})

	ginkgo.When("the listing was truncated", func() {
		ginkgo.It("should still resolve and flag the result", func() {
			catalog.truncated = true

			resolution, err := newResolver().Resolve(context.Background())
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(resolution.Truncated).To(gomega.BeTrue())
			gomega.Expect(resolution.Latest.Tag).To(gomega.Equal(types.ImageTag("master-101")))
		})
	})

	ginkgo.When("the registry fails", func() {
		ginkgo.It("should wrap listing errors", func() {
			catalog.listErr = errors.New("connection refused")

			resolution, err := newResolver().Resolve(context.Background())
			gomega.Expect(errors.Is(err, registry.ErrRegistry)).To(gomega.BeTrue())
			gomega.Expect(err.Error()).To(gomega.ContainSubstring("connection refused"))
			gomega.Expect(resolution.Latest.IsZero()).To(gomega.BeTrue())
		})

		ginkgo.It("should wrap describe errors", func() {
			catalog.describeErr = errors.New("throttled")

			_, err := newResolver().Resolve(context.Background())
			gomega.Expect(errors.Is(err, registry.ErrRegistry)).To(gomega.BeTrue())
		})

		ginkgo.It("should reject a record without a publication time", func() {
			catalog.pushed["master-101"] = time.Time{}

			_, err := newResolver().Resolve(context.Background())
			gomega.Expect(errors.Is(err, registry.ErrRegistry)).To(gomega.BeTrue())
		})

		ginkgo.It("should reject a matching tag the registry did not describe", func() {
			delete(catalog.pushed, "master-99")

			resolution, err := newResolver().Resolve(context.Background())
			gomega.Expect(errors.Is(err, registry.ErrRegistry)).To(gomega.BeTrue())
			gomega.Expect(resolution.Latest.IsZero()).To(gomega.BeTrue())
		})

		ginkgo.It("should reject a record that was never requested", func() {
			catalog.extra = []types.ImageRecord{{Tag: "master-500", PublishedAt: t0.Add(9 * time.Hour)}}

			_, err := newResolver().Resolve(context.Background())
			gomega.Expect(errors.Is(err, registry.ErrRegistry)).To(gomega.BeTrue())
		})
	})
})

var _ = ginkgo.Describe("the resolver's catalog calls", func() {
	var catalog *mocks.MockCatalog

	newResolver := func(maxResults int) *registry.Resolver {
		pattern, err := registry.NewPrefixPattern("master-")
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		resolver, err := registry.NewResolver(catalog, registry.Options{
			Repository: "ferrum_node",
			Pattern:    pattern,
			MaxResults: maxResults,
		})
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		return resolver
	}

	ginkgo.BeforeEach(func() {
		catalog = mocks.NewMockCatalog(ginkgo.GinkgoT())
	})

	ginkgo.It("should list with the configured bound and describe only matching tags", func() {
		published := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

		catalog.EXPECT().ListTags(mock.Anything, "ferrum_node", 50).
			Return(types.TagPage{Tags: []types.ImageTag{"latest", "master-7", "dev-9"}}, nil).Once()
		catalog.EXPECT().DescribeTags(mock.Anything, "ferrum_node", []types.ImageTag{"master-7"}).
			Return([]types.ImageRecord{{Tag: "master-7", PublishedAt: published}}, nil).Once()

		resolution, err := newResolver(50).Resolve(context.Background())
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(resolution.Latest.Tag).To(gomega.Equal(types.ImageTag("master-7")))
		gomega.Expect(resolution.Listed).To(gomega.Equal(3))
		gomega.Expect(resolution.Matched).To(gomega.Equal(1))
	})

	ginkgo.It("should use the default bound when none is configured", func() {
		catalog.EXPECT().ListTags(mock.Anything, "ferrum_node", registry.DefaultMaxResults).
			Return(types.TagPage{Tags: []types.ImageTag{"master-1"}}, nil).Once()
		catalog.EXPECT().DescribeTags(mock.Anything, "ferrum_node", []types.ImageTag{"master-1"}).
			Return([]types.ImageRecord{{Tag: "master-1", PublishedAt: time.Now()}}, nil).Once()

		_, err := newResolver(0).Resolve(context.Background())
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
	})

	ginkgo.It("should not describe anything when no tag matches", func() {
		catalog.EXPECT().ListTags(mock.Anything, "ferrum_node", 50).
			Return(types.TagPage{Tags: []types.ImageTag{"latest", "dev-9"}}, nil).Once()

		_, err := newResolver(50).Resolve(context.Background())
		gomega.Expect(errors.Is(err, registry.ErrNoMatchingTag)).To(gomega.BeTrue())
		catalog.AssertNotCalled(ginkgo.GinkgoT(), "DescribeTags", mock.Anything, mock.Anything, mock.Anything)
	})
})
