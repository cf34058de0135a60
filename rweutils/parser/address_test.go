// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package parser_test

import (
	"errors"

	"github.com/ironcore-dev/rwe-utils/rweutils/parser"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("VerifyAddress", func() {

	It("should accept a matching echo", func() {
		Expect(parser.VerifyAddress(0x1000, "Read Memory Address=1000, Length=4096, ok")).To(Succeed())
	})

	It("should accept 64 bit addresses in any case", func() {
		Expect(parser.VerifyAddress(0x1_F000_0000, "Memory Address=1f00000000, Size")).To(Succeed())
	})

	It("should reject a different echo", func() {
		err := parser.VerifyAddress(0x1000, "Read Memory Address=2000, Length=4096")
		Expect(err).To(MatchError(parser.ErrAddressMismatch))

		var mismatch *parser.AddressMismatchError
		Expect(errors.As(err, &mismatch)).To(BeTrue())
		Expect(mismatch.Expected).To(Equal(uint64(0x1000)))
		Expect(mismatch.Actual).To(Equal(uint64(0x2000)))
		Expect(mismatch.Found).To(BeTrue())
	})

	It("should reject output without an echo", func() {
		err := parser.VerifyAddress(0x1000, "nothing here")
		Expect(err).To(MatchError(parser.ErrAddressMismatch))
		Expect(err.Error()).To(ContainSubstring("no address echo"))
	})

	It("should only look at the first echo", func() {
		err := parser.VerifyAddress(0x2000, "Address=1000, Address=2000,")
		Expect(err).To(MatchError(parser.ErrAddressMismatch))
	})
})
