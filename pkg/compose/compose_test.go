package compose

import (
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Compose", func() {
	ginkgo.Describe("GetServiceName", func() {
		ginkgo.It("returns empty string for nil labels", func() {
			result := GetServiceName(nil)
			gomega.Expect(result).To(gomega.Equal(""))
		})

		ginkgo.It("returns empty string when label not present", func() {
			labels := map[string]string{"other": "value"}
			result := GetServiceName(labels)
			gomega.Expect(result).To(gomega.Equal(""))
		})

		ginkgo.It("returns service name when label present", func() {
			labels := map[string]string{ComposeServiceLabel: "node"}
			result := GetServiceName(labels)
			gomega.Expect(result).To(gomega.Equal("node"))
		})
	})

	ginkgo.Describe("GetProjectName", func() {
		ginkgo.It("returns empty string for nil labels", func() {
			gomega.Expect(GetProjectName(nil)).To(gomega.Equal(""))
		})

		ginkgo.It("returns project name when label present", func() {
			labels := map[string]string{ComposeProjectLabel: "testnet"}
			gomega.Expect(GetProjectName(labels)).To(gomega.Equal("testnet"))
		})
	})

	ginkgo.Describe("GetWorkingDir", func() {
		ginkgo.It("returns the working directory label", func() {
			labels := map[string]string{ComposeWorkingDirLabel: "/srv/testnet"}
			gomega.Expect(GetWorkingDir(labels)).To(gomega.Equal("/srv/testnet"))
		})
	})
})
