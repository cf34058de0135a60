// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package codec_test

import (
	"github.com/ironcore-dev/rwe-utils/rweutils/codec"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Codec", func() {

	It("should decode little-endian words", func() {
		words := codec.BytesToWords([]byte{0x78, 0x56, 0x34, 0x12, 0x01, 0x00, 0x00, 0x00})
		Expect(words).To(Equal([]uint32{0x12345678, 0x1}))
	})

	It("should drop a trailing partial word", func() {
		words := codec.BytesToWords([]byte{0x01, 0x00, 0x00, 0x00, 0xff, 0xff})
		Expect(words).To(Equal([]uint32{0x1}))

		Expect(codec.BytesToWords([]byte{0x01, 0x02})).To(BeEmpty())
	})

	It("should chunk words in order", func() {
		chunks := codec.Chunk([]uint32{1, 2, 3, 4, 5, 6, 7, 8}, 4)
		Expect(chunks).To(Equal([][]uint32{{1, 2, 3, 4}, {5, 6, 7, 8}}))

		Expect(codec.Chunk([]uint32{1, 2, 3}, 2)).To(Equal([][]uint32{{1, 2}, {3}}))
		Expect(codec.Chunk(nil, 4)).To(BeEmpty())
	})

	DescribeTable("line classification",
		func(line string, kind codec.LineKind) {
			Expect(codec.ClassifyLine(line)).To(Equal(kind))
		},
		Entry("data", "0000  01 02 03 04\t....", codec.LineData),
		Entry("blank", "   ", codec.LineBlank),
		Entry("indented", "  0 1 2 3", codec.LineIndented),
		Entry("dump header", "Dump Memory 0x1000", codec.LineDumpHeader),
		Entry("parameter error", "Error: bad parameter", codec.LineParameterError),
	)

	It("should parse a hex dump line", func() {
		data, err := codec.ParseHexDump("0000  01 02 03 04\tsomething\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(Equal([]byte{0x01, 0x02, 0x03, 0x04}))
	})

	It("should skip non data lines", func() {
		dump := "Dump Memory Address 0x1000\r\n" +
			"      00 01 02 03\r\n" +
			"0000  de ad\t..\r\n" +
			"0010  be ef\t..\r\n" +
			"Error: trailing garbage\r\n"

		data, err := codec.ParseHexDump(dump)
		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(Equal([]byte{0xde, 0xad, 0xbe, 0xef}))
	})

	It("should fail on invalid hex tokens", func() {
		_, err := codec.ParseHexDump("0000  01 zz 03\t...\n")
		Expect(err).To(MatchError(codec.ErrParse))
		Expect(err.Error()).To(ContainSubstring(`"zz"`))
	})

	It("should fail on lines without an index column", func() {
		_, err := codec.ParseHexDump("0000\n")
		Expect(err).To(MatchError(codec.ErrParse))
	})
})
