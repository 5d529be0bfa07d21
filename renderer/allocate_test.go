package renderer

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v3/core1_0"
)

func memoryProps(types ...core1_0.MemoryPropertyFlags) *core1_0.PhysicalDeviceMemoryProperties {
	props := &core1_0.PhysicalDeviceMemoryProperties{}
	for _, flags := range types {
		props.MemoryTypes = append(props.MemoryTypes, core1_0.MemoryType{
			PropertyFlags: flags,
		})
	}
	return props
}

func TestFindMemoryTypeMatchesFilterAndFlags(t *testing.T) {
	props := memoryProps(
		core1_0.MemoryPropertyDeviceLocal,
		core1_0.MemoryPropertyHostVisible,
		core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent,
	)

	index, err := findMemoryType(props, 0b111, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	require.NoError(t, err)
	require.Equal(t, 2, index)
}

func TestFindMemoryTypeHonorsTypeFilter(t *testing.T) {
	props := memoryProps(
		core1_0.MemoryPropertyDeviceLocal,
		core1_0.MemoryPropertyDeviceLocal,
	)

	// Type 0 qualifies by flags but the filter excludes it.
	index, err := findMemoryType(props, 0b10, core1_0.MemoryPropertyDeviceLocal)
	require.NoError(t, err)
	require.Equal(t, 1, index)
}

func TestFindMemoryTypeNoMatch(t *testing.T) {
	props := memoryProps(core1_0.MemoryPropertyDeviceLocal)

	_, err := findMemoryType(props, 0b1, core1_0.MemoryPropertyHostVisible)
	require.Error(t, err)
}
