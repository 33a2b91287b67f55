package arch

import "github.com/vk/gmtrain/internal/shape"

// MNIST networks, built for (1, 28, 28).

func mnistTrunk(c int) []Layer {
	return concat(
		downsample(c, 128, 4, 2, 1),
		downsample(128, 256, 4, 2, 1),
		downsample(256, 512, 4, 2, 1),
		downsample(512, 1024, 4, 2, 1),
	)
}

func MNISTEncoderAE(s Spec) (*Encoder, error) {
	return newEncoder("Encoder_AE_MNIST", s, false, mnistTrunk)
}

func MNISTEncoderVAE(s Spec) (*Encoder, error) {
	return newEncoder("Encoder_VAE_MNIST", s, true, mnistTrunk)
}

func MNISTDecoder(s Spec) (*Decoder, error) {
	return newDecoder("Decoder_AE_MNIST", s, shape.Of(1024, 4, 4), func(c int) []Layer {
		return concat(
			upsample(1024, 512, 3, 2, 1, 0),
			upsample(512, 256, 3, 2, 1, 1),
			[]Layer{ConvTranspose2d{In: 256, Out: c, Kernel: 3, Stride: 2, Padding: 1, OutputPadding: 1}, Sigmoid},
		)
	})
}

// CIFAR-10 networks, built for (3, 32, 32).

func cifarTrunk(c int) []Layer {
	return concat(
		downsample(c, 128, 4, 2, 1),
		downsample(128, 256, 4, 2, 1),
		downsample(256, 512, 4, 2, 1),
		downsample(512, 1024, 4, 2, 1),
	)
}

func CIFAREncoderAE(s Spec) (*Encoder, error) {
	return newEncoder("Encoder_AE_CIFAR", s, false, cifarTrunk)
}

func CIFAREncoderVAE(s Spec) (*Encoder, error) {
	return newEncoder("Encoder_VAE_CIFAR", s, true, cifarTrunk)
}

func CIFARDecoder(s Spec) (*Decoder, error) {
	return newDecoder("Decoder_AE_CIFAR", s, shape.Of(1024, 8, 8), func(c int) []Layer {
		return concat(
			upsample(1024, 512, 4, 2, 1, 0),
			upsample(512, 256, 4, 2, 1, 0),
			[]Layer{ConvTranspose2d{In: 256, Out: c, Kernel: 3, Stride: 1, Padding: 1}, Sigmoid},
		)
	})
}

// CelebA networks, built for (3, 64, 64).

func celebaTrunk(c int) []Layer {
	return concat(
		downsample(c, 128, 5, 2, 2),
		downsample(128, 256, 5, 2, 2),
		downsample(256, 512, 5, 2, 2),
		downsample(512, 1024, 5, 2, 2),
	)
}

func CelebAEncoderAE(s Spec) (*Encoder, error) {
	return newEncoder("Encoder_AE_CELEBA", s, false, celebaTrunk)
}

func CelebAEncoderVAE(s Spec) (*Encoder, error) {
	return newEncoder("Encoder_VAE_CELEBA", s, true, celebaTrunk)
}

func CelebADecoder(s Spec) (*Decoder, error) {
	return newDecoder("Decoder_AE_CELEBA", s, shape.Of(1024, 8, 8), func(c int) []Layer {
		return concat(
			upsample(1024, 512, 5, 2, 2, 1),
			upsample(512, 256, 5, 2, 2, 1),
			upsample(256, 128, 5, 2, 2, 1),
			[]Layer{ConvTranspose2d{In: 128, Out: c, Kernel: 5, Stride: 1, Padding: 2}, Sigmoid},
		)
	})
}
