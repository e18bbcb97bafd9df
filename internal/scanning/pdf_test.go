package scanning

import (
	"bytes"
	"fmt"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// buildPDF writes a minimal PDF with one page per content stream, all using
// Helvetica as /F1
func buildPDF(streams ...string) []byte {
	var objects []string
	kids := make([]string, 0, len(streams))
	for i := range streams {
		kids = append(kids, fmt.Sprintf("%d 0 R", 4+2*i))
	}
	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(streams)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	)
	for i, s := range streams {
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(s), s),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, 0, len(objects))
	for i, obj := range objects {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

const (
	kernedInvoicePage = "BT /F1 10 Tf 72 720 Td [(Inv) -30 (oice #: INV-7)] TJ ET\n" +
		"BT /F1 10 Tf 72 700 Td (GSTIN 22AAAAA0000A1Z5) Tj ET"
	itemsPage = "BT /F1 10 Tf 72 720 Td (1 Widget \\(18%\\) 118.00) Tj ET\n" +
		"BT /F1 10 Tf 72 700 Td (2 Gadget \\(18%\\) 236.00) Tj ET\n" +
		"BT /F1 10 Tf 72 680 Td [(Total) -400 (354.00)] TJ ET"
)

var _ = Describe("PDF readers", func() {
	var (
		reader PageReader
		data   []byte
		pages  []string
		err    error
	)

	JustBeforeEach(func() {
		pages, err = reader.PageTexts(data)
	})

	lines := func(page string) []string {
		return strings.Split(page, "\n")
	}

	for _, r := range []PageReader{NewFitzReader(), NewNativeReader()} {
		r := r

		Describe(r.Name(), func() {
			BeforeEach(func() {
				reader = r
			})

			When("a page has kerned text on separate lines", func() {
				BeforeEach(func() {
					data = buildPDF(kernedInvoicePage)
				})

				It("should keep each printed line separate and whole", func() {
					Expect(err).NotTo(HaveOccurred())
					Expect(pages).To(HaveLen(1))
					Expect(lines(pages[0])).To(Equal([]string{"Invoice #: INV-7", "GSTIN 22AAAAA0000A1Z5"}))
				})
			})

			When("the document has several pages", func() {
				BeforeEach(func() {
					data = buildPDF(kernedInvoicePage, itemsPage)
				})

				It("should return the pages in order", func() {
					Expect(err).NotTo(HaveOccurred())
					Expect(pages).To(HaveLen(2))
					Expect(lines(pages[1])).To(HaveLen(3))
					Expect(lines(pages[1])[0]).To(Equal("1 Widget (18%) 118.00"))
					Expect(lines(pages[1])[1]).To(Equal("2 Gadget (18%) 236.00"))
				})
			})

			When("a page has no text", func() {
				BeforeEach(func() {
					data = buildPDF(kernedInvoicePage, "")
				})

				It("should return a blank page", func() {
					Expect(err).NotTo(HaveOccurred())
					Expect(pages).To(HaveLen(2))
					Expect(strings.TrimSpace(pages[1])).To(BeEmpty())
				})
			})

			When("the data is not a PDF", func() {
				BeforeEach(func() {
					data = []byte("not a pdf")
				})

				It("should yield no pages", func() {
					// MuPDF may repair garbage into an empty document instead of failing
					Expect(err != nil || len(pages) == 0).To(BeTrue())
				})
			})
		})
	}

	Describe("native word gaps", func() {
		BeforeEach(func() {
			reader = NewNativeReader()
			data = buildPDF(itemsPage)
		})

		It("should separate words split by a wide gap", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(lines(pages[0])[2]).To(Equal("Total 354.00"))
		})
	})
})
