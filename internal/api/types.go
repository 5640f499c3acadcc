package api

// Region identifies a Lambda Cloud region.
type Region struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// InstanceTypeSpecs describes the hardware behind an instance type.
type InstanceTypeSpecs struct {
	VCPUs      int `json:"vcpus"`
	MemoryGiB  int `json:"memory_gib"`
	StorageGiB int `json:"storage_gib"`
	GPUs       int `json:"gpus"`
}

// InstanceType describes a launchable instance type. RegionsAvailable is
// filled from the capacity information the instance-types endpoint returns
// alongside each type.
type InstanceType struct {
	Name              string            `json:"name"`
	Description       string            `json:"description"`
	PriceCentsPerHour int               `json:"price_cents_per_hour"`
	Specs             InstanceTypeSpecs `json:"specs"`
	RegionsAvailable  []Region          `json:"regions_available,omitempty"`
}

// Instance is a running (or transitioning) compute instance.
type Instance struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	IP              string       `json:"ip"`
	Status          string       `json:"status"`
	Region          Region       `json:"region"`
	InstanceType    InstanceType `json:"instance_type"`
	SSHKeyNames     []string     `json:"ssh_key_names"`
	FilesystemNames []string     `json:"file_system_names"`
}

// SSHKey is a registered public key.
type SSHKey struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	PublicKey string `json:"public_key"`
}

// Filesystem is a persistent storage volume.
type Filesystem struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	MountPoint string `json:"mount_point"`
	Region     Region `json:"region"`
	IsInUse    bool   `json:"is_in_use"`
	BytesUsed  int64  `json:"bytes_used"`
}

// LaunchRequest is the payload for launching a new instance.
type LaunchRequest struct {
	InstanceTypeName string   `json:"instance_type_name"`
	RegionName       string   `json:"region_name"`
	SSHKeyNames      []string `json:"ssh_key_names"`
	FilesystemNames  []string `json:"file_system_names,omitempty"`
	Name             string   `json:"name,omitempty"`
}
