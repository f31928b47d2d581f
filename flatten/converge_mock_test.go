package flatten_test

import (
	gomock "github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/hdlflat/flatten"
	"github.com/sarchlab/hdlflat/ir"
	"github.com/sarchlab/hdlflat/primitive"
)

var _ = Describe("Converge against a mock primitive", func() {
	var mockCtrl *gomock.Controller

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("calls every cell's ExecComb exactly once per fixed-point pass, regardless of scheduled blocks", func() {
		mockPrim := NewMockPrimitive(mockCtrl)
		mockPrim.EXPECT().ExecComb(gomock.Any()).Return(primitive.Unchanged, nil).Times(1)

		cells := ir.NewIndexedMap[ir.GlobalCellIdx, flatten.CellLedger](0)
		cells.Push(flatten.CellLedger{Primitive: mockPrim})

		env := &flatten.Environment{
			Ports: flatten.NewPortMap(0),
			Cells: cells,
		}

		Expect(env.Converge(nil)).To(Succeed())
	})

	It("keeps iterating the fixed point until every primitive reports Unchanged", func() {
		mockPrim := NewMockPrimitive(mockCtrl)
		gomock.InOrder(
			mockPrim.EXPECT().ExecComb(gomock.Any()).Return(primitive.Changed, nil),
			mockPrim.EXPECT().ExecComb(gomock.Any()).Return(primitive.Unchanged, nil),
		)

		cells := ir.NewIndexedMap[ir.GlobalCellIdx, flatten.CellLedger](0)
		cells.Push(flatten.CellLedger{Primitive: mockPrim})

		env := &flatten.Environment{
			Ports: flatten.NewPortMap(0),
			Cells: cells,
		}

		Expect(env.Converge(nil)).To(Succeed())
	})
})
