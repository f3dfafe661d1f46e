//go:build !pl011debug

package pl011

func (*Stats) onEnable()          {}
func (*Stats) onDisable()         {}
func (*Stats) onTx(int)           {}
func (*Stats) onFlushPending()    {}
func (*Stats) onRx(int)           {}
func (*Stats) onLineError(uint32) {}
