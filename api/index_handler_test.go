package api

import (
	"context"
	"net/http"
	"sync"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/shelfworksco/stacks/pkg/index"
	"github.com/shelfworksco/stacks/pkg/papers/inmemory"
	"github.com/shelfworksco/stacks/pkg/search"
	"github.com/shelfworksco/stacks/pkg/vector"
)

// gateEmbedder blocks every Embed call until released, signalling once the
// first call has started. It lets a test hold a rebuild mid-flight.
type gateEmbedder struct {
	dim     int
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gateEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	g.once.Do(func() { close(g.started) })
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	v := make([]float32, g.dim)
	v[0] = 1
	return v, nil
}

func (g *gateEmbedder) Dimension() int { return g.dim }
func (g *gateEmbedder) Close() error   { return nil }

var _ = Describe("handleIndexStatus", func() {
	var (
		server  *Server
		store   *inmemory.Store
		manager *index.Manager
		ctx     context.Context
	)

	BeforeEach(func() {
		server, store, manager = testServer()
		ctx = context.Background()
	})

	getStatus := func(path string) StatusResponse {
		req, err := http.NewRequest(http.MethodGet, path, nil)
		Expect(err).NotTo(HaveOccurred())

		resp, err := server.app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

		var status StatusResponse
		decodeBody(resp, &status)
		return status
	}

	It("reports an empty index before any rebuild", func() {
		status := getStatus("/api/index/status")
		Expect(status.Index.TotalDocuments).To(BeZero())
		Expect(status.Index.UsingHybrid).To(BeFalse())
		Expect(status.HasBackup).To(BeFalse())
		Expect(status.BackupInfo).To(BeNil())
	})

	It("reports the live snapshot after a rebuild", func() {
		seedCorpus(ctx, store)
		_, err := manager.Rebuild(ctx, vector.GranularityPaper)
		Expect(err).NotTo(HaveOccurred())

		status := getStatus("/api/index/status")
		Expect(status.Index.TotalDocuments).To(Equal(2))
		Expect(status.Index.LastUpdated).NotTo(BeZero())
		Expect(status.HasBackup).To(BeFalse())
	})

	It("includes backup info once a backup exists", func() {
		seedCorpus(ctx, store)
		_, err := manager.Rebuild(ctx, vector.GranularityPaper)
		Expect(err).NotTo(HaveOccurred())
		_, err = manager.Rebuild(ctx, vector.GranularityPaper)
		Expect(err).NotTo(HaveOccurred())

		status := getStatus("/api/index/status")
		Expect(status.HasBackup).To(BeTrue())
		Expect(status.BackupInfo).NotTo(BeNil())
		Expect(status.BackupInfo.Timestamp).NotTo(BeZero())
	})

	It("selects the paragraph granularity via query parameter", func() {
		seedCorpus(ctx, store)
		_, err := manager.Rebuild(ctx, vector.GranularityPaper)
		Expect(err).NotTo(HaveOccurred())

		status := getStatus("/api/index/status?use_paragraphs=true")
		Expect(status.Index.TotalDocuments).To(BeZero())
	})
})

var _ = Describe("handleIndexRebuild", func() {
	var (
		server *Server
		store  *inmemory.Store
		ctx    context.Context
	)

	BeforeEach(func() {
		server, store, _ = testServer()
		ctx = context.Background()
	})

	It("rebuilds and reports the document count", func() {
		seedCorpus(ctx, store)

		req, err := http.NewRequest(http.MethodPost, "/api/index/rebuild", nil)
		Expect(err).NotTo(HaveOccurred())

		resp, err := server.app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

		var out RebuildResponse
		decodeBody(resp, &out)
		Expect(out.DocumentCount).To(Equal(2))
	})

	It("returns 500 when the corpus is empty", func() {
		resp, err := server.app.Test(postJSON("/api/index/rebuild", RebuildRequest{}))
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(fiber.StatusInternalServerError))
	})

	It("returns 409 while another rebuild is running", func() {
		seedCorpus(ctx, store)

		gate := &gateEmbedder{
			dim:     8,
			started: make(chan struct{}),
			release: make(chan struct{}),
		}
		manager := index.NewManager(store, gate, vector.BuildOptions{}, zap.NewNop())
		searcher := search.NewService(manager, store, gate, zap.NewNop(), search.Options{})
		busy := NewServer(Config{ListenAddr: ":0"}, searcher, manager, store, zap.NewNop())

		done := make(chan error, 1)
		go func() {
			_, err := manager.Rebuild(ctx, vector.GranularityPaper)
			done <- err
		}()
		Eventually(gate.started).Should(BeClosed())

		resp, err := busy.app.Test(postJSON("/api/index/rebuild", RebuildRequest{}))
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(fiber.StatusConflict))

		resp, err = busy.app.Test(postJSON("/api/index/rollback", RebuildRequest{}))
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(fiber.StatusConflict))

		close(gate.release)
		Eventually(done).Should(Receive(BeNil()))
	})
})

var _ = Describe("handleIndexRollback", func() {
	var (
		server  *Server
		store   *inmemory.Store
		manager *index.Manager
		ctx     context.Context
	)

	BeforeEach(func() {
		server, store, manager = testServer()
		ctx = context.Background()
	})

	It("returns 409 when no backup exists", func() {
		resp, err := server.app.Test(postJSON("/api/index/rollback", RebuildRequest{}))
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(fiber.StatusConflict))

		var errResp ErrorResponse
		decodeBody(resp, &errResp)
		Expect(errResp.Error).To(ContainSubstring("no backup"))
	})

	It("restores the previous snapshot", func() {
		seedCorpus(ctx, store)
		_, err := manager.Rebuild(ctx, vector.GranularityPaper)
		Expect(err).NotTo(HaveOccurred())
		_, err = manager.Rebuild(ctx, vector.GranularityPaper)
		Expect(err).NotTo(HaveOccurred())

		resp, err := server.app.Test(postJSON("/api/index/rollback", RebuildRequest{}))
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

		var out RollbackResponse
		decodeBody(resp, &out)
		Expect(out.RestoredDocumentCount).To(Equal(2))
	})
})
