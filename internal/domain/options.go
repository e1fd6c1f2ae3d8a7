package domain

// CommonOptions contains shared options for verification commands.
type CommonOptions struct {
	Verbose  bool
	Strict   bool
	Workers  int
	Progress bool
	UseCache bool
}

// DefaultCommonOptions returns CommonOptions with default values.
func DefaultCommonOptions() CommonOptions {
	return CommonOptions{
		Strict:  true,
		Workers: 1,
	}
}
