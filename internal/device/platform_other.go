//go:build !windows

package device

func platformTransferers() []Transferer {
	return nil
}
