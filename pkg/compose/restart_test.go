package compose

import (
	"context"
	"errors"
	"strings"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

type recordedCall struct {
	dir  string
	env  []string
	name string
	args []string
}

func recordingRunner(calls *[]recordedCall, output string, err error) Runner {
	return func(_ context.Context, dir string, env []string, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, recordedCall{dir: dir, env: env, name: name, args: args})

		return []byte(output), err
	}
}

var _ = ginkgo.Describe("Restarter", func() {
	var calls []recordedCall

	ginkgo.BeforeEach(func() {
		calls = nil
	})

	ginkgo.It("runs compose up for the service with the tag exported", func() {
		restarter := NewRestarterWithRunner(Options{
			File:    "docker-compose.yml",
			Project: "testnet",
			Dir:     "/srv/testnet",
			Service: "node",
		}, recordingRunner(&calls, "", nil))

		gomega.Expect(restarter.Restart(context.Background(), "master-101")).To(gomega.Succeed())
		gomega.Expect(calls).To(gomega.HaveLen(1))

		call := calls[0]
		gomega.Expect(call.name).To(gomega.Equal("docker"))
		gomega.Expect(call.args).To(gomega.Equal([]string{
			"compose", "-f", "docker-compose.yml", "-p", "testnet", "up", "-d", "node",
		}))
		gomega.Expect(call.dir).To(gomega.Equal("/srv/testnet"))
		gomega.Expect(call.env).To(gomega.ContainElement("TAGWATCH_IMAGE_TAG=master-101"))
	})

	ginkgo.It("restarts the whole project when no service is named", func() {
		restarter := NewRestarterWithRunner(Options{}, recordingRunner(&calls, "", nil))

		gomega.Expect(restarter.Args()).To(gomega.Equal([]string{"compose", "up", "-d"}))
	})

	ginkgo.It("supports the standalone compose binary and a custom variable", func() {
		restarter := NewRestarterWithRunner(Options{
			Command: []string{"docker-compose"},
			TagEnv:  "NODE_TAG",
		}, recordingRunner(&calls, "", nil))

		gomega.Expect(restarter.Restart(context.Background(), "master-7")).To(gomega.Succeed())
		gomega.Expect(calls[0].name).To(gomega.Equal("docker-compose"))
		gomega.Expect(calls[0].args).To(gomega.Equal([]string{"up", "-d"}))
		gomega.Expect(calls[0].env).To(gomega.ContainElement("NODE_TAG=master-7"))
	})

	ginkgo.It("reports failures with the command output", func() {
		restarter := NewRestarterWithRunner(Options{Service: "node"},
			recordingRunner(&calls, "no such service: node\n", errors.New("exit status 1")))

		err := restarter.Restart(context.Background(), "master-101")
		gomega.Expect(errors.Is(err, errRestartFailed)).To(gomega.BeTrue())
		gomega.Expect(err.Error()).To(gomega.ContainSubstring("no such service: node"))
	})

	ginkgo.It("keeps only the tail of long output", func() {
		long := strings.Repeat("x", maxOutputInError) + "tail"
		restarter := NewRestarterWithRunner(Options{},
			recordingRunner(&calls, long, errors.New("exit status 1")))

		err := restarter.Restart(context.Background(), "master-1")
		gomega.Expect(err.Error()).To(gomega.HaveSuffix("tail"))
		gomega.Expect(len(err.Error())).To(gomega.BeNumerically("<", maxOutputInError+200))
	})

	ginkgo.It("rejects an empty tag without running anything", func() {
		restarter := NewRestarterWithRunner(Options{}, recordingRunner(&calls, "", nil))

		gomega.Expect(restarter.Restart(context.Background(), "")).To(gomega.MatchError(errEmptyTag))
		gomega.Expect(calls).To(gomega.BeEmpty())
	})

	ginkgo.It("runs real commands through the exec runner", func() {
		restarter := NewRestarterWithRunner(Options{Command: []string{"true"}}, execRunner)

		gomega.Expect(restarter.Restart(context.Background(), "master-1")).To(gomega.Succeed())
	})
})
