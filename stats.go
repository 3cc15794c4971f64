package keyedtable

type Stats struct {
	Size       int
	Capacity   int
	LoadFactor float32
	Rehashes   int
	Holes      int
}
