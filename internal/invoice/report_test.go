package invoice

import (
	ginkgo "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/shopspring/decimal"

	"github.com/zombor/invoice-extractor/internal/extraction"
)

var _ = ginkgo.Describe("Report", func() {
	var (
		result extraction.Result
		report Report
	)

	ginkgo.BeforeEach(func() {
		result = newExtractor().Extract(sampleLines())
	})

	ginkgo.JustBeforeEach(func() {
		report = NewReport("a.pdf", result)
	})

	ginkgo.It("should list every field in display order", func() {
		Expect(report.Fields).To(HaveLen(len(extraction.Fields)))
		for i, f := range extraction.Fields {
			Expect(report.Fields[i].Name).To(Equal(string(f)))
		}
	})

	ginkgo.It("should mark missing fields", func() {
		Expect(report.Fields[0]).To(Equal(FieldRow{Name: "Company Name", Value: "ACME TRADING PRIVATE LIMITED", Found: true}))
		Expect(report.Fields[2]).To(Equal(FieldRow{Name: "Phone Number", Value: extraction.NotFound, Found: false}))
	})

	ginkgo.It("should format amounts with two decimals", func() {
		Expect(report.Items).To(Equal([]string{"118.00", "236.00"}))
		Expect(report.ItemSum).To(Equal("354.00"))
	})

	ginkgo.It("should count missing fields", func() {
		Expect(report.Missing).To(Equal(result.Fields.Missing()))
	})

	ginkgo.When("the totals disagree", func() {
		ginkgo.BeforeEach(func() {
			result.Verdict = extraction.NotTrusted
		})

		ginkgo.It("should carry the not-trusted message", func() {
			Expect(report.Message).To(Equal(msgNotTrusted))
		})
	})

	ginkgo.When("the total cannot be parsed", func() {
		ginkgo.BeforeEach(func() {
			result.Verdict = extraction.Unparseable
		})

		ginkgo.It("should carry the unparseable message", func() {
			Expect(report.Message).To(Equal(msgUnparseable))
		})
	})

	ginkgo.When("there are no items", func() {
		ginkgo.BeforeEach(func() {
			result = extraction.Result{
				Fields:  extraction.FieldMap{},
				Items:   []decimal.Decimal{},
				ItemSum: decimal.Zero,
				Verdict: extraction.Unparseable,
			}
		})

		ginkgo.It("should fill absent fields with the sentinel", func() {
			for _, row := range report.Fields {
				Expect(row.Value).To(Equal(extraction.NotFound))
			}
			Expect(report.Missing).To(Equal(len(extraction.Fields)))
		})

		ginkgo.It("should show a zero sum", func() {
			Expect(report.Items).To(BeEmpty())
			Expect(report.ItemSum).To(Equal("0.00"))
		})
	})

	ginkgo.Describe("Text", func() {
		ginkgo.It("should render the fields, items and verdict", func() {
			text := report.Text()
			Expect(text).To(HavePrefix("Extracted Invoice Data:\nCompany Name: ACME TRADING PRIVATE LIMITED\n"))
			Expect(text).To(ContainSubstring("Invoice Number: INV-2024-001\n"))
			Expect(text).To(ContainSubstring("\nExtracted Item Amounts:\nItem 1 Amount: 118.00\nItem 2 Amount: 236.00\n"))
			Expect(text).To(ContainSubstring("\nSum of Item Amounts: 354.00\n"))
			Expect(text).To(HaveSuffix(msgTrusted + "\n"))
		})
	})
})
