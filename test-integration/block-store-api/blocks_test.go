package integration

import (
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lumina-study/block-store/internal/config"
	"github.com/lumina-study/block-store/internal/sources/providertest"
	"github.com/lumina-study/block-store/test-integration/block-store-api/helpers"
)

var _ = Describe("Blocks", Label("blocks"), func() {
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
		gitlab.AddRepo(helpers.Repo("group", "project", "def456", helpers.Document(
			helpers.BlockSpec{ID: "intro", EnTitle: "Intro to graphs", HeTitle: "מבוא לגרפים"},
			helpers.BlockSpec{ID: "trees", EnTitle: "Trees", HeTitle: "עצים", Parents: []string{"intro"}},
		)))

		serverHelper = helpers.NewServerTestHelper(ctx, helpers.ConfigFor(github, gitlab,
			config.SourceConfig{Provider: "github", Organization: "org1", Repository: "repo1"},
			config.SourceConfig{Provider: "gitlab", Organization: "group", Repository: "project"},
		))
		Expect(serverHelper.StartServer()).To(Succeed())
		serverHelper.WaitForServerReady(10 * time.Second)
	})

	AfterEach(func() {
		Expect(serverHelper.StopServer()).To(Succeed())
		github.Close()
		gitlab.Close()
	})

	It("loads startup sources before reporting ready", func() {
		resp, err := serverHelper.Get("/api/v1/status")
		Expect(err).NotTo(HaveOccurred())
		status := helpers.DecodeJSON[statusResponse](resp)
		Expect(status.Sources).To(Equal(2))
		Expect(status.Blocks).To(Equal(4))
		Expect(status.Phase).To(Equal("Idle"))
	})

	It("lists blocks across all sources", func() {
		resp, err := serverHelper.Get("/api/v1/blocks")
		Expect(err).NotTo(HaveOccurred())
		list := helpers.DecodeJSON[blockListResponse](resp)
		Expect(list.Count).To(Equal(4))
		Expect(blockIDs(list.Blocks)).To(ConsistOf("intro", "perm", "intro", "trees"))
	})

	It("lists the blocks of one source", func() {
		resp, err := serverHelper.Get(helpers.SourcePath("gitlab:group:project") + "/blocks")
		Expect(err).NotTo(HaveOccurred())
		list := helpers.DecodeJSON[blockListResponse](resp)
		Expect(blockIDs(list.Blocks)).To(Equal([]string{"intro", "trees"}))
		Expect(list.Blocks[1].Parents).To(Equal([]string{"intro"}))
	})

	It("returns an empty list for a source that is not stored", func() {
		resp, err := serverHelper.Get(helpers.SourcePath("github:org1:other") + "/blocks")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		list := helpers.DecodeJSON[blockListResponse](resp)
		Expect(list.Blocks).To(BeEmpty())
	})

	It("finds a block by id", func() {
		resp, err := serverHelper.Get("/api/v1/blocks/trees")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		block := helpers.DecodeJSON[blockResponse](resp)
		Expect(block.Title.EnText).To(Equal("Trees"))
		Expect(block.Title.HeText).To(Equal("עצים"))

		resp, err = serverHelper.Get("/api/v1/blocks/nope")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		_ = resp.Body.Close()
	})
})
