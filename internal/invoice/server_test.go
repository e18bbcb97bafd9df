package invoice

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net"
	"net/http"

	ginkgo "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/zombor/invoice-extractor/internal/extraction"
	"github.com/zombor/invoice-extractor/internal/scanning"
)

func multipartBody(field, filename string, data []byte) (*bytes.Buffer, string) {
	var b bytes.Buffer
	writer := multipart.NewWriter(&b)
	part, err := writer.CreateFormFile(field, filename)
	Expect(err).NotTo(HaveOccurred())
	_, err = part.Write(data)
	Expect(err).NotTo(HaveOccurred())
	Expect(writer.Close()).To(Succeed())
	return &b, writer.FormDataContentType()
}

var _ = ginkgo.Describe("Server", func() {
	var (
		source      *mockSource
		storage     *mockStorage
		server      *Server
		auth        BasicAuth
		ghttpServer *ghttp.Server
	)

	ginkgo.BeforeEach(func() {
		source = &mockSource{lines: sampleLines()}
		storage = newMockStorage()
		auth = BasicAuth{}
	})

	ginkgo.JustBeforeEach(func() {
		service := NewService(source, newExtractor(), storage)
		server = NewServerWithMux(service, auth, http.NewServeMux())
		ghttpServer = ghttp.NewServer()
		ghttpServer.AppendHandlers(server.ServeHTTP)
	})

	ginkgo.AfterEach(func() {
		ghttpServer.Close()
	})

	ginkgo.Describe("handleIndex", func() {
		ginkgo.When("request method is GET", func() {
			ginkgo.It("should return HTML containing Invoice Extractor", func() {
				resp, err := http.Get(ghttpServer.URL() + "/")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				Expect(resp.Header.Get("Content-Type")).To(Equal("text/html; charset=utf-8"))
				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(string(body)).To(ContainSubstring("Invoice Extractor"))
			})
		})

		ginkgo.When("request method is not GET", func() {
			ginkgo.It("should return status Method Not Allowed", func() {
				req, err := http.NewRequest(http.MethodPut, ghttpServer.URL()+"/", nil)
				Expect(err).NotTo(HaveOccurred())
				resp, err := http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusMethodNotAllowed))
				resp.Body.Close()
			})
		})
	})

	ginkgo.Describe("static assets", func() {
		ginkgo.It("should serve the stylesheet", func() {
			resp, err := http.Get(ghttpServer.URL() + "/static/app.css")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("text/css"))
		})

		ginkgo.It("should serve the script", func() {
			resp, err := http.Get(ghttpServer.URL() + "/static/app.js")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("application/javascript; charset=utf-8"))
		})
	})

	ginkgo.Describe("handleExtract", func() {
		post := func(body io.Reader, contentType string) *http.Response {
			resp, err := http.Post(ghttpServer.URL()+"/api/extract", contentType, body)
			Expect(err).NotTo(HaveOccurred())
			return resp
		}

		decodeError := func(resp *http.Response) string {
			var body map[string]string
			Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
			return body["error"]
		}

		ginkgo.When("upload succeeds", func() {
			ginkgo.It("should return the report", func() {
				b, ct := multipartBody("file", "invoice.pdf", []byte("%PDF-1.4"))
				resp := post(b, ct)
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("*"))

				var report Report
				Expect(json.NewDecoder(resp.Body).Decode(&report)).To(Succeed())
				Expect(report.Document).To(Equal("invoice.pdf"))
				Expect(report.Verdict).To(Equal(extraction.Trusted))
				Expect(report.Items).To(Equal([]string{"118.00", "236.00"}))
			})

			ginkgo.It("should not keep the upload", func() {
				b, ct := multipartBody("file", "invoice.pdf", []byte("%PDF-1.4"))
				resp := post(b, ct)
				resp.Body.Close()
				Expect(storage.files).To(BeEmpty())
			})
		})

		ginkgo.When("invalid multipart form", func() {
			ginkgo.It("should return status Bad Request", func() {
				resp := post(bytes.NewBufferString("invalid"), "multipart/form-data")
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				Expect(decodeError(resp)).To(Equal("Error parsing form"))
			})
		})

		ginkgo.When("no file is provided", func() {
			ginkgo.It("should return status Bad Request", func() {
				b, ct := multipartBody("other", "invoice.pdf", []byte("x"))
				resp := post(b, ct)
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				Expect(decodeError(resp)).To(ContainSubstring("No file was selected"))
			})
		})

		ginkgo.When("the document cannot be read", func() {
			ginkgo.BeforeEach(func() {
				source.err = &scanning.AcquisitionError{Path: "x", Op: "pdf fitz", Err: scanning.ErrNoTextLayer}
			})

			ginkgo.It("should return status Unprocessable Entity", func() {
				b, ct := multipartBody("file", "scan.pdf", []byte("%PDF-1.4"))
				resp := post(b, ct)
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusUnprocessableEntity))
				Expect(decodeError(resp)).To(Equal("pdf fitz: no extractable text layer"))
			})

			ginkgo.When("the error names the spooled file", func() {
				ginkgo.BeforeEach(func() {
					source.err = &scanning.AcquisitionError{Path: "/spool/7_scan.pdf", Op: "read", Err: errors.New("unexpected EOF")}
				})

				ginkgo.It("should not reveal the server path", func() {
					b, ct := multipartBody("file", "scan.pdf", []byte("%PDF-1.4"))
					resp := post(b, ct)
					defer resp.Body.Close()
					msg := decodeError(resp)
					Expect(msg).To(Equal("read: unexpected EOF"))
					Expect(msg).NotTo(ContainSubstring("/spool"))
				})
			})
		})

		ginkgo.When("the upload cannot be spooled", func() {
			ginkgo.BeforeEach(func() {
				storage.saveErr = errors.New("disk full")
			})

			ginkgo.It("should return status Internal Server Error", func() {
				b, ct := multipartBody("file", "invoice.pdf", []byte("%PDF-1.4"))
				resp := post(b, ct)
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
				Expect(decodeError(resp)).To(Equal("Internal server error"))
			})
		})
	})

	ginkgo.Describe("CORS preflight", func() {
		ginkgo.It("should answer OPTIONS with No Content", func() {
			req, err := http.NewRequest(http.MethodOptions, ghttpServer.URL()+"/api/extract", nil)
			Expect(err).NotTo(HaveOccurred())
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(resp.Header.Get("Access-Control-Allow-Methods")).To(ContainSubstring("POST"))
		})
	})

	ginkgo.Describe("basic auth", func() {
		ginkgo.BeforeEach(func() {
			auth = BasicAuth{Username: "admin", Password: "secret"}
		})

		get := func(credentials string) *http.Response {
			req, err := http.NewRequest(http.MethodGet, ghttpServer.URL()+"/", nil)
			Expect(err).NotTo(HaveOccurred())
			if credentials != "" {
				req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(credentials)))
			}
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			return resp
		}

		ginkgo.When("no credentials are sent", func() {
			ginkgo.It("should return status Unauthorized", func() {
				resp := get("")
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
				Expect(resp.Header.Get("WWW-Authenticate")).To(ContainSubstring("Invoice Extractor"))
			})
		})

		ginkgo.When("the credentials are wrong", func() {
			ginkgo.It("should return status Unauthorized", func() {
				resp := get("admin:nope")
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			})
		})

		ginkgo.When("only the username matches", func() {
			ginkgo.It("should return status Unauthorized", func() {
				resp := get("admin:secretx")
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			})
		})

		ginkgo.When("the credentials are correct", func() {
			ginkgo.It("should return status OK", func() {
				resp := get("admin:secret")
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
			})
		})
	})

	ginkgo.Describe("Serve", func() {
		var (
			ln     net.Listener
			ctx    context.Context
			cancel context.CancelFunc
			served chan error
		)

		ginkgo.BeforeEach(func() {
			source.started = make(chan struct{})
			source.release = make(chan struct{})
		})

		ginkgo.JustBeforeEach(func() {
			var err error
			ln, err = net.Listen("tcp", "127.0.0.1:0")
			Expect(err).NotTo(HaveOccurred())
			ctx, cancel = context.WithCancel(context.Background())
			served = make(chan error, 1)
			go func() {
				served <- server.Serve(ctx, ln)
			}()
		})

		ginkgo.AfterEach(func() {
			cancel()
		})

		ginkgo.It("should finish in-flight requests before returning", func() {
			responses := make(chan int, 1)
			go func() {
				defer ginkgo.GinkgoRecover()
				b, ct := multipartBody("file", "invoice.pdf", []byte("%PDF-1.4"))
				resp, err := http.Post("http://"+ln.Addr().String()+"/api/extract", ct, b)
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()
				responses <- resp.StatusCode
			}()

			Eventually(source.started).Should(BeClosed())
			cancel()
			Consistently(served, "200ms").ShouldNot(Receive())
			Expect(storage.deleted).To(BeEmpty())

			close(source.release)
			Eventually(responses).Should(Receive(Equal(http.StatusOK)))
			Eventually(served).Should(Receive(BeNil()))
		})
	})
})
