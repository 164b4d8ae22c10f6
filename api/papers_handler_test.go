package api

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/shelfworksco/stacks/pkg/index"
	"github.com/shelfworksco/stacks/pkg/papers/inmemory"
	"github.com/shelfworksco/stacks/pkg/vector"
)

var _ = Describe("handleDeletePaper", func() {
	var (
		server  *Server
		store   *inmemory.Store
		manager *index.Manager
		ctx     context.Context
	)

	deleteReq := func(id string) *http.Request {
		req, err := http.NewRequest(http.MethodDelete, "/api/papers/"+id, nil)
		Expect(err).NotTo(HaveOccurred())
		return req
	}

	BeforeEach(func() {
		server, store, manager = testServer()
		ctx = context.Background()
		seedCorpus(ctx, store)
	})

	It("deletes the paper and its paragraphs from the store", func() {
		resp, err := server.app.Test(deleteReq("api-graphs"))
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

		var out DeletePaperResponse
		decodeBody(resp, &out)
		Expect(out.PaperID).To(Equal("api-graphs"))

		_, err = store.GetPaper(ctx, "api-graphs")
		Expect(err).To(HaveOccurred())

		n, err := store.CountPapers(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(1))
	})

	It("returns 404 for an unknown paper", func() {
		resp, err := server.app.Test(deleteReq("no-such-paper"))
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))

		var out ErrorResponse
		decodeBody(resp, &out)
		Expect(out.Error).To(ContainSubstring("no-such-paper"))
	})

	It("leaves the live index untouched until the next rebuild", func() {
		_, err := manager.Rebuild(ctx, vector.GranularityPaper)
		Expect(err).NotTo(HaveOccurred())

		resp, err := server.app.Test(deleteReq("api-graphs"))
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

		status := manager.Status(vector.GranularityPaper)
		Expect(status.DocumentCount).To(Equal(2))

		result, err := manager.Rebuild(ctx, vector.GranularityPaper)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.DocumentCount).To(Equal(1))
	})
})
