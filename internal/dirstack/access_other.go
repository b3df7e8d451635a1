//go:build !unix

package dirstack

func access(path string) error {
	return nil
}
