package vm

func wordBytes(w uint32) [4]byte {
	return [4]byte{byte(w >> 24), byte(w >> 16), byte(w >> 8), byte(w)}
}

func bytesWord(b [4]byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// trailingNonZeroBytes counts the leading non-zero bytes of w, big-endian,
// stopping at the first zero — the strlen-style tail GETBYTELEN reads past
// a string allocation's stored word count.
func trailingNonZeroBytes(w uint32) uint32 {
	bs := wordBytes(w)
	var n uint32
	for _, b := range bs {
		if b == 0 {
			break
		}
		n++
	}
	return n
}

func (vm *VM) heapGet(i uint64) (uint32, error) {
	w, ok := vm.Heap.Get(i)
	if !ok {
		return 0, vm.fail(ErrHeapOutOfBounds)
	}
	return w, nil
}

func (vm *VM) load(id uint64) error {
	a, err := vm.lookup(id)
	if err != nil {
		return err
	}
	w, err := vm.heapGet(a.Base)
	if err != nil {
		return err
	}
	vm.push(w)
	return nil
}

func (vm *VM) loadd(id uint64) error {
	a, err := vm.lookup(id)
	if err != nil {
		return err
	}
	for i := uint64(0); i < uint64(a.Size); i++ {
		w, err := vm.heapGet(a.Base + i)
		if err != nil {
			return err
		}
		vm.push(w)
	}
	vm.push(a.Size)
	return nil
}

func (vm *VM) pops(id uint64) error {
	w, err := vm.pop()
	if err != nil {
		return err
	}
	base := vm.Table.AllocateStatic(&vm.Heap, id, 1)
	vm.Heap.Set(base, w)
	return nil
}

func (vm *VM) constU(id uint64, w uint32) error {
	base := vm.Table.AllocateStatic(&vm.Heap, id, 1)
	vm.Heap.Set(base, w)
	return nil
}

func (vm *VM) constF(id uint64, f float32) error {
	base := vm.Table.AllocateStatic(&vm.Heap, id, 1)
	vm.Heap.Set(base, floatToWord(f))
	return nil
}

func (vm *VM) constI(id uint64, i int32) error {
	base := vm.Table.AllocateStatic(&vm.Heap, id, 1)
	vm.Heap.Set(base, intToWord(i))
	return nil
}

func (vm *VM) constB(id uint64, b bool) error {
	base := vm.Table.AllocateStatic(&vm.Heap, id, 1)
	var w uint32
	if b {
		w = 1
	}
	vm.Heap.Set(base, w)
	return nil
}

// constS packs s's UTF-8 bytes into ceil(len/4) words, zero-padding the
// last word, matching CONST_S's documented allocation shape.
func (vm *VM) constS(id uint64, s string) error {
	bytes := []byte(s)
	wordCount := (len(bytes) + 3) / 4
	base := vm.Table.AllocateStatic(&vm.Heap, id, uint32(wordCount))
	for i := 0; i < wordCount; i++ {
		var buf [4]byte
		copy(buf[:], bytes[i*4:])
		vm.Heap.Set(base+uint64(i), bytesWord(buf))
	}
	return nil
}

func (vm *VM) getByteLen(id uint64) error {
	a, err := vm.lookup(id)
	if err != nil {
		return err
	}
	trailing, ok := vm.Heap.Get(a.Base + uint64(a.Size))
	if !ok {
		trailing = 0 // allocation sits at the very end of the heap
	}
	vm.push(4*a.Size + trailingNonZeroBytes(trailing))
	return nil
}

func (vm *VM) getByte(id, off uint64) error {
	a, err := vm.lookup(id)
	if err != nil {
		return err
	}
	wordIdx, byteIdx := off/4, off%4
	if wordIdx >= uint64(a.Size) {
		return vm.fail(ErrHeapOutOfBounds)
	}
	w, err := vm.heapGet(a.Base + wordIdx)
	if err != nil {
		return err
	}
	vm.push(uint32(wordBytes(w)[byteIdx]))
	return nil
}

func (vm *VM) getWord(id, off uint64) error {
	a, err := vm.lookup(id)
	if err != nil {
		return err
	}
	if off >= uint64(a.Size) {
		return vm.fail(ErrHeapOutOfBounds)
	}
	w, err := vm.heapGet(a.Base + off)
	if err != nil {
		return err
	}
	vm.push(w)
	return nil
}

func (vm *VM) setByte(id, off uint64, v byte) error {
	a, err := vm.lookup(id)
	if err != nil {
		return err
	}
	wordIdx, byteIdx := off/4, off%4
	if wordIdx >= uint64(a.Size) {
		return vm.fail(ErrHeapOutOfBounds)
	}
	w, err := vm.heapGet(a.Base + wordIdx)
	if err != nil {
		return err
	}
	bs := wordBytes(w)
	bs[byteIdx] = v
	vm.Heap.Set(a.Base+wordIdx, bytesWord(bs))
	return nil
}

func (vm *VM) setWord(id, off uint64, v uint32) error {
	a, err := vm.lookup(id)
	if err != nil {
		return err
	}
	if off >= uint64(a.Size) {
		return vm.fail(ErrHeapOutOfBounds)
	}
	vm.Heap.Set(a.Base+off, v)
	return nil
}

func (vm *VM) emitWords(id uint64, appendLen bool) error {
	a, err := vm.lookup(id)
	if err != nil {
		return err
	}
	for i := uint64(0); i < uint64(a.Size); i++ {
		w, err := vm.heapGet(a.Base + i)
		if err != nil {
			return err
		}
		vm.Output = append(vm.Output, w)
	}
	if appendLen {
		vm.Output = append(vm.Output, a.Size)
	}
	return nil
}
