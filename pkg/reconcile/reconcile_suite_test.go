// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/quarto-go/qcore/pkg/ast"
)

func TestReconcileSuite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Reconcile Suite")
}

var _ = Describe("Applying a reconciliation plan", func() {
	var before, after *ast.Pandoc

	Context("when before and after are structurally identical", func() {
		BeforeEach(func() {
			before = doc(para("alpha", originalAt(0, 5)), para("beta", originalAt(6, 10)))
			after = doc(para("alpha", nil), para("beta", nil))
		})

		It("keeps every original block", func() {
			plan := Compute(before, after)
			Expect(plan.IsAllKeep()).To(BeTrue())

			merged := Apply(before, after, plan)
			Expect(merged.Blocks).To(HaveLen(2))
			Expect(merged.Blocks[0]).To(BeIdenticalTo(before.Blocks[0]))
			Expect(merged.Blocks[1]).To(BeIdenticalTo(before.Blocks[1]))
		})
	})

	Context("when the engine rewrote part of a nested container", func() {
		BeforeEach(func() {
			inner := ast.NewBlockQuote([]ast.Block{
				para("quoted", originalAt(2, 8)),
			}, originalAt(0, 10))
			before = doc(inner, para("tail", originalAt(11, 15)))
			after = doc(
				ast.NewBlockQuote([]ast.Block{para("rewritten", nil)}, nil),
				para("tail", nil),
			)
		})

		It("keeps the container shell and the untouched sibling", func() {
			plan := Compute(before, after)
			merged := Apply(before, after, plan)

			Expect(merged.Blocks).To(HaveLen(2))
			quote, ok := merged.Blocks[0].(*ast.BlockQuote)
			Expect(ok).To(BeTrue())
			Expect(quote.Info()).To(BeIdenticalTo(before.Blocks[0].Info()))
			Expect(merged.Blocks[1]).To(BeIdenticalTo(before.Blocks[1]))
		})

		It("records every source node it produced from a real input node", func() {
			plan := Compute(before, after)
			merged := Apply(before, after, plan)

			known := map[interface{}]bool{}
			collect := func(d *ast.Pandoc) {
				ast.Walk(d.Blocks, func(b ast.Block) bool {
					known[b.Info()] = true
					return true
				}, func(in ast.Inline) bool {
					known[in.Info()] = true
					return true
				})
			}
			collect(before)
			collect(after)

			ast.Walk(merged.Blocks, func(b ast.Block) bool {
				Expect(known).To(HaveKey(b.Info()))
				return true
			}, func(in ast.Inline) bool {
				Expect(known).To(HaveKey(in.Info()))
				return true
			})
		})
	})

	Context("when a list grew a new item", func() {
		BeforeEach(func() {
			before = doc(ast.NewBulletList([][]ast.Block{
				{para("one", originalAt(0, 3))},
			}, originalAt(0, 3)))
			after = doc(ast.NewBulletList([][]ast.Block{
				{para("one", nil)},
				{para("two", nil)},
			}, nil))
		})

		It("keeps the shared item and adopts the new one", func() {
			plan := Compute(before, after)
			merged := Apply(before, after, plan)

			list := merged.Blocks[0].(*ast.BulletList)
			Expect(list.Items).To(HaveLen(2))
			Expect(list.Items[0][0]).To(BeIdenticalTo(before.Blocks[0].(*ast.BulletList).Items[0][0]))
			Expect(list.Items[1][0]).To(BeIdenticalTo(after.Blocks[0].(*ast.BulletList).Items[1][0]))
		})
	})
})
