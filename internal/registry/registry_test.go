package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/gmtrain/internal/arch"
	"github.com/vk/gmtrain/internal/dataset"
	"github.com/vk/gmtrain/internal/model"
	"github.com/vk/gmtrain/internal/shape"
	"github.com/vk/gmtrain/internal/testutil"
)

func TestDefault_EverySupportedFamilyHasCompleteTriple(t *testing.T) {
	t.Parallel()

	reg := Default()

	require.Equal(t, []dataset.Family{dataset.CelebA, dataset.CIFAR10, dataset.MNIST}, reg.Families())
	for _, f := range reg.Families() {
		c, err := reg.Lookup(f)
		require.NoError(t, err)
		assert.NotNil(t, c.AEEncoder, f)
		assert.NotNil(t, c.VAEEncoder, f)
		assert.NotNil(t, c.Decoder, f)
	}
	require.NoError(t, reg.Validate(context.Background()))
}

func TestLookup_UnsupportedFamily(t *testing.T) {
	t.Parallel()

	_, err := Default().Lookup("svhn")

	var ue *UnsupportedDatasetError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, dataset.Family("svhn"), ue.Family)
	assert.Equal(t, `unsupported dataset "svhn": supported datasets are celeba, cifar10, mnist`, err.Error())
}

func TestSelect_ByCompatibilityClass(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	c, err := Default().Lookup(dataset.MNIST)
	require.NoError(t, err)
	s := arch.Spec{InputDim: shape.Of(1, 28, 28), LatentDim: 4}

	// --- Act ---
	aeEnc, aeDec := c.Select(model.ClassAE)
	vaeEnc, vaeDec := c.Select(model.ClassVAE)

	// --- Assert ---
	ae, err := aeEnc(s)
	require.NoError(t, err)
	vae, err := vaeEnc(s)
	require.NoError(t, err)
	assert.False(t, ae.Variational())
	assert.True(t, vae.Variational())

	d1, err := aeDec(s)
	require.NoError(t, err)
	d2, err := vaeDec(s)
	require.NoError(t, err)
	assert.Equal(t, d1.Params(), d2.Params(), "both classes share one decoder")
}

func TestRegister_PanicsOnDuplicate(t *testing.T) {
	t.Parallel()

	reg := New()
	reg.Register(dataset.MNIST, Constructors{})

	assert.Panics(t, func() { reg.Register(dataset.MNIST, Constructors{}) })
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	reg := New()
	reg.Register(dataset.MNIST, Constructors{AEEncoder: arch.MNISTEncoderAE})
	reg.Register(dataset.CIFAR10, Constructors{
		AEEncoder:  arch.CIFAREncoderAE,
		VAEEncoder: arch.CIFAREncoderVAE,
		Decoder:    arch.MNISTDecoder,
	})

	ctx, logs := testutil.LogContext(t)

	// --- Act ---
	err := reg.Validate(ctx)

	// --- Assert ---
	require.Error(t, err)
	testutil.AssertLogged(t, logs.String(), "Dataset has no registered architectures.", "dataset=celeba")
	msg := err.Error()
	assert.Contains(t, msg, "registry validation failed:")
	assert.Contains(t, msg, "dataset 'mnist': missing VAE encoder constructor")
	assert.Contains(t, msg, "dataset 'mnist': missing decoder constructor")
	assert.Contains(t, msg, "dataset 'cifar10': decoder does not reproduce (3, 32, 32)")
}
