package integration

import (
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lumina-study/block-store/internal/sources/providertest"
	"github.com/lumina-study/block-store/test-integration/block-store-api/helpers"
)

var _ = Describe("Source Lifecycle", Label("sources"), func() {
	var (
		github       *providertest.Server
		gitlab       *providertest.Server
		serverHelper *helpers.ServerTestHelper
	)

	BeforeEach(func() {
		github = providertest.NewGitHub()
		gitlab = providertest.NewGitLab()

		github.AddRepo(helpers.Repo("org1", "repo1", "abc123", helpers.Document(
			helpers.BlockSpec{ID: "intro", EnTitle: "Introduction", HeTitle: "מבוא"},
			helpers.BlockSpec{ID: "perm", EnTitle: "Permutations", HeTitle: "תמורות", Prerequisites: []string{"intro"}, Parents: []string{"intro"}},
		)))
		private := helpers.Repo("org1", "private", "fff000", helpers.Document(
			helpers.BlockSpec{ID: "secret", EnTitle: "Secret", HeTitle: "סוד"},
		))
		private.Token = "s3cret"
		github.AddRepo(private)
		gitlab.AddRepo(helpers.Repo("group", "project", "def456", helpers.Document(
			helpers.BlockSpec{ID: "graphs", EnTitle: "Graphs", HeTitle: "גרפים"},
		)))

		serverHelper = helpers.NewServerTestHelper(ctx, helpers.ConfigFor(github, gitlab))
		Expect(serverHelper.StartServer()).To(Succeed())
		serverHelper.WaitForServerReady(10 * time.Second)
	})

	AfterEach(func() {
		Expect(serverHelper.StopServer()).To(Succeed())
		github.Close()
		gitlab.Close()
	})

	It("adds a GitHub source and serves it by key", func() {
		resp, err := serverHelper.AddSource(map[string]string{
			"provider": "github", "organization": "org1", "repository": "repo1",
		}, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))
		Expect(resp.Header.Get("Location")).To(Equal("/api/v1/sources/github:org1:repo1"))

		added := helpers.DecodeJSON[sourceResponse](resp)
		Expect(added.CommitSHA).To(Equal("abc123"))
		Expect(blockIDs(added.LuminaJSON.Blocks)).To(Equal([]string{"intro", "perm"}))
		Expect(added.AddedAt).NotTo(BeEmpty())

		resp, err = serverHelper.Get(helpers.SourcePath("github:org1:repo1"))
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		got := helpers.DecodeJSON[sourceResponse](resp)
		Expect(got.Organization).To(Equal("org1"))
		Expect(got.Repository).To(Equal("repo1"))
	})

	It("adds a GitLab source", func() {
		resp, err := serverHelper.AddSource(map[string]string{
			"provider": "gitlab", "organization": "group", "repository": "project",
		}, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))
		added := helpers.DecodeJSON[sourceResponse](resp)
		Expect(added.Provider).To(Equal("gitlab"))
		Expect(added.CommitSHA).To(Equal("def456"))
	})

	It("uses the token given with the add", func() {
		resp, err := serverHelper.AddSource(map[string]string{
			"provider": "github", "organization": "org1", "repository": "private",
		}, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		failed := helpers.DecodeJSON[errorResponse](resp)
		Expect(failed.Error).To(ContainSubstring("Bad credentials"))
		Expect(failed.Status).To(Equal(http.StatusUnauthorized))

		resp, err = serverHelper.AddSource(map[string]string{
			"provider": "github", "organization": "org1", "repository": "private", "token": "s3cret",
		}, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))
		_ = resp.Body.Close()
	})

	It("records a failed add without touching stored sources", func() {
		resp, err := serverHelper.AddSource(map[string]string{
			"provider": "github", "organization": "org1", "repository": "repo1",
		}, "")
		Expect(err).NotTo(HaveOccurred())
		_ = resp.Body.Close()

		resp, err = serverHelper.AddSource(map[string]string{
			"provider": "github", "organization": "org1", "repository": "missing",
		}, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		failed := helpers.DecodeJSON[errorResponse](resp)
		Expect(failed.Error).To(HavePrefix("Failed to fetch lumina.json from GitHub (org1/missing)"))

		resp, err = serverHelper.Get("/api/v1/status")
		Expect(err).NotTo(HaveOccurred())
		status := helpers.DecodeJSON[statusResponse](resp)
		Expect(status.Phase).To(Equal("Failed"))
		Expect(status.Loading).To(BeFalse())
		Expect(status.Error).NotTo(BeNil())
		Expect(*status.Error).To(Equal(failed.Error))
		Expect(status.Sources).To(Equal(1))

		resp, err = serverHelper.Delete("/api/v1/status/error")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
		_ = resp.Body.Close()

		resp, err = serverHelper.Get("/api/v1/status")
		Expect(err).NotTo(HaveOccurred())
		status = helpers.DecodeJSON[statusResponse](resp)
		Expect(status.Phase).To(Equal("Idle"))
		Expect(status.Error).To(BeNil())
	})

	It("rejects unsupported providers and malformed bodies", func() {
		resp, err := serverHelper.AddSource(map[string]string{
			"provider": "bitbucket", "organization": "org1", "repository": "repo1",
		}, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		_ = resp.Body.Close()

		resp, err = serverHelper.AddSource(map[string]string{
			"provider": "github", "organization": "org:1", "repository": "repo1",
		}, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		_ = resp.Body.Close()
	})

	It("adds in the background when asked not to wait", func() {
		resp, err := serverHelper.AddSource(map[string]string{
			"provider": "gitlab", "organization": "group", "repository": "project",
		}, "wait=false")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusAccepted))
		_ = resp.Body.Close()

		Eventually(func() int {
			resp, err := serverHelper.Get(helpers.SourcePath("gitlab:group:project"))
			if err != nil {
				return 0
			}
			_ = resp.Body.Close()
			return resp.StatusCode
		}, 5*time.Second, 20*time.Millisecond).Should(Equal(http.StatusOK))
	})

	It("replaces a source when it is added again", func() {
		for range 2 {
			resp, err := serverHelper.AddSource(map[string]string{
				"provider": "github", "organization": "org1", "repository": "repo1",
			}, "")
			Expect(err).NotTo(HaveOccurred())
			_ = resp.Body.Close()
		}

		resp, err := serverHelper.Get("/api/v1/sources")
		Expect(err).NotTo(HaveOccurred())
		list := helpers.DecodeJSON[sourceListResponse](resp)
		Expect(list.Count).To(Equal(1))
	})

	It("removes and clears sources", func() {
		for _, body := range []map[string]string{
			{"provider": "github", "organization": "org1", "repository": "repo1"},
			{"provider": "gitlab", "organization": "group", "repository": "project"},
		} {
			resp, err := serverHelper.AddSource(body, "")
			Expect(err).NotTo(HaveOccurred())
			_ = resp.Body.Close()
		}

		resp, err := serverHelper.Get("/api/v1/sources?provider=gitlab")
		Expect(err).NotTo(HaveOccurred())
		list := helpers.DecodeJSON[sourceListResponse](resp)
		Expect(list.Count).To(Equal(1))
		Expect(list.Sources[0].Provider).To(Equal("gitlab"))

		resp, err = serverHelper.Delete(helpers.SourcePath("github:org1:repo1"))
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
		_ = resp.Body.Close()

		resp, err = serverHelper.Get(helpers.SourcePath("github:org1:repo1"))
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		_ = resp.Body.Close()

		// Removing an absent key is not an error
		resp, err = serverHelper.Delete(helpers.SourcePath("github:org1:repo1"))
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
		_ = resp.Body.Close()

		resp, err = serverHelper.Delete("/api/v1/sources")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
		_ = resp.Body.Close()

		resp, err = serverHelper.Get("/api/v1/status")
		Expect(err).NotTo(HaveOccurred())
		status := helpers.DecodeJSON[statusResponse](resp)
		Expect(status.Sources).To(BeZero())
		Expect(status.Blocks).To(BeZero())
	})

	It("rejects malformed keys", func() {
		resp, err := serverHelper.Get(helpers.SourcePath("github:org1"))
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		_ = resp.Body.Close()

		resp, err = serverHelper.Get(helpers.SourcePath("svn:org1:repo1"))
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		_ = resp.Body.Close()
	})
})
