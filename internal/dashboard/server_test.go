package dashboard_test

import (
	"log/slog"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"procodus.dev/river-monitor/internal/dashboard"
	"procodus.dev/river-monitor/internal/model"
	"procodus.dev/river-monitor/internal/pipeline"
	"procodus.dev/river-monitor/internal/store"
)

var _ = Describe("Dashboard Server", func() {
	var (
		logger     *slog.Logger
		readingLog *store.Log
		holder     *model.Holder
	)

	BeforeEach(func() {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))

		dir := GinkgoT().TempDir()

		var err error
		readingLog, err = store.Open(filepath.Join(dir, "sensor_log.csv"), logger)
		Expect(err).NotTo(HaveOccurred())

		holder = model.NewHolder(filepath.Join(dir, "model.json"), logger)
	})

	Describe("NewServer", func() {
		Context("with valid configuration", func() {
			It("should create a server", func() {
				config := &dashboard.ServerConfig{
					Logger:   logger,
					HTTPPort: 8080,
					Log:      readingLog,
					Models:   holder,
					Pipeline: pipeline.DefaultConfig(),
				}

				server, err := dashboard.NewServer(config)
				Expect(err).NotTo(HaveOccurred())
				Expect(server).NotTo(BeNil())
			})

			It("should fall back to the service logger for auditing", func() {
				config := &dashboard.ServerConfig{
					Logger:   logger,
					Audit:    nil,
					HTTPPort: 8080,
					Log:      readingLog,
					Models:   holder,
					Pipeline: pipeline.DefaultConfig(),
				}

				server, err := dashboard.NewServer(config)
				Expect(err).NotTo(HaveOccurred())
				Expect(server).NotTo(BeNil())
			})
		})

		Context("with invalid configuration", func() {
			It("should return error when config is nil", func() {
				server, err := dashboard.NewServer(nil)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("config cannot be nil"))
				Expect(server).To(BeNil())
			})

			It("should return error when logger is nil", func() {
				config := &dashboard.ServerConfig{
					HTTPPort: 8080,
					Log:      readingLog,
					Models:   holder,
					Pipeline: pipeline.DefaultConfig(),
				}

				server, err := dashboard.NewServer(config)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("logger"))
				Expect(server).To(BeNil())
			})

			It("should return error when HTTP port is not positive", func() {
				for _, port := range []int{0, -1} {
					config := &dashboard.ServerConfig{
						Logger:   logger,
						HTTPPort: port,
						Log:      readingLog,
						Models:   holder,
						Pipeline: pipeline.DefaultConfig(),
					}

					server, err := dashboard.NewServer(config)
					Expect(err).To(HaveOccurred())
					Expect(err.Error()).To(ContainSubstring("HTTP port"))
					Expect(server).To(BeNil())
				}
			})

			It("should return error when the reading log is nil", func() {
				config := &dashboard.ServerConfig{
					Logger:   logger,
					HTTPPort: 8080,
					Models:   holder,
					Pipeline: pipeline.DefaultConfig(),
				}

				server, err := dashboard.NewServer(config)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("reading log"))
				Expect(server).To(BeNil())
			})

			It("should return error when the model holder is nil", func() {
				config := &dashboard.ServerConfig{
					Logger:   logger,
					HTTPPort: 8080,
					Log:      readingLog,
					Pipeline: pipeline.DefaultConfig(),
				}

				server, err := dashboard.NewServer(config)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("model holder"))
				Expect(server).To(BeNil())
			})
		})
	})

	Describe("Server Shutdown", func() {
		It("should shutdown cleanly before Run", func() {
			config := &dashboard.ServerConfig{
				Logger:   logger,
				HTTPPort: 8085,
				Log:      readingLog,
				Models:   holder,
				Pipeline: pipeline.DefaultConfig(),
			}

			server, err := dashboard.NewServer(config)
			Expect(err).NotTo(HaveOccurred())

			Expect(server.Shutdown()).To(Succeed())
		})
	})
})
