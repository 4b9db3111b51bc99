package nor

// ChipInfo describes one entry in the JEDEC chip table: a flash part's
// display name, its one-byte manufacturer ID, its full 4-byte JEDEC ID
// (packed big-endian into the top bits the way the source's chip_prob
// compares it), its erase sector geometry, and whether it needs 4-byte
// addressing mode.
//
// Field order and names mirror original_source/src/spi_nor_flash.h's
// struct chip_info (name, id, jedec_id, sector_size, n_sectors, addr4b).
type ChipInfo struct {
	Name       string
	ID         byte
	JEDECID    uint32
	SectorSize uint32
	NSectors   uint32
	Addr4B     bool
}

// Size returns the chip's total capacity in bytes.
func (c ChipInfo) Size() uint32 {
	return c.SectorSize * c.NSectors
}

// chips is the JEDEC chip table, transcribed verbatim (including its
// handful of duplicate entries, which are preserved rather than
// deduplicated since the source matches top-down and a later duplicate
// is unreachable there too) from chips_data[] in
// original_source/src/spi_nor_flash.c.
var chips = []ChipInfo{
	{"AT26DF161", 0x1f, 0x46000000, 64 * 1024, 32, false},
	{"AT25DF321", 0x1f, 0x47000000, 64 * 1024, 64, false},

	{"A25L10PU", 0x37, 0x20110000, 64 * 1024, 2, false},
	{"A25L20PU", 0x37, 0x20120000, 64 * 1024, 4, false},
	{"A25L040", 0x37, 0x30130000, 64 * 1024, 8, false},
	{"A25LQ080", 0x37, 0x40140000, 64 * 1024, 16, false},
	{"A25L080", 0x37, 0x30140000, 64 * 1024, 16, false},
	{"A25LQ16", 0x37, 0x40150000, 64 * 1024, 32, false},
	{"A25LQ32", 0x37, 0x40160000, 64 * 1024, 64, false},
	{"A25L032", 0x37, 0x30160000, 64 * 1024, 64, false},
	{"A25LQ64", 0x37, 0x40170000, 64 * 1024, 128, false},

	{"ES25P10", 0x4a, 0x20110000, 64 * 1024, 4, false},
	{"ES25P20", 0x4a, 0x20120000, 64 * 1024, 8, false},
	{"ES25P40", 0x4a, 0x20130000, 64 * 1024, 16, false},
	{"ES25P80", 0x4a, 0x20140000, 64 * 1024, 32, false},
	{"ES25P16", 0x4a, 0x20150000, 64 * 1024, 64, false},
	{"ES25P32", 0x4a, 0x20160000, 64 * 1024, 128, false},
	{"ES25M40A", 0x4a, 0x32130000, 64 * 1024, 16, false},
	{"ES25M80A", 0x4a, 0x32140000, 64 * 1024, 32, false},
	{"ES25M16A", 0x4a, 0x32150000, 64 * 1024, 64, false},

	{"DQ25Q64AS", 0x54, 0x40170000, 64 * 1024, 128, false},
	{"DQ25Q128AL", 0x54, 0x60180000, 64 * 1024, 256, false},

	{"F25L016", 0x8c, 0x21150000, 64 * 1024, 32, false},
	{"F25L16QA", 0x8c, 0x41158c41, 64 * 1024, 32, false},
	{"F25L032", 0x8c, 0x21160000, 64 * 1024, 64, false},
	{"F25L32QA", 0x8c, 0x41168c41, 64 * 1024, 64, false},
	{"F25L064", 0x8c, 0x21170000, 64 * 1024, 128, false},
	{"F25L64QA", 0x8c, 0x41170000, 64 * 1024, 128, false},

	{"GD25Q20C", 0xc8, 0x40120000, 64 * 1024, 4, false},
	{"GD25Q40C", 0xc8, 0x40130000, 64 * 1024, 8, false},
	{"GD25Q80C", 0xc8, 0x40140000, 64 * 1024, 16, false},
	{"GD25LQ80C", 0xc8, 0x60140000, 64 * 1024, 16, false},
	{"GD25WD80C", 0xc8, 0x64140000, 64 * 1024, 16, false},
	{"GD25WQ80E", 0xc8, 0x65140000, 64 * 1024, 16, false},
	{"GD25Q16", 0xc8, 0x40150000, 64 * 1024, 32, false},
	{"GD25LQ16C", 0xc8, 0x60150000, 64 * 1024, 32, false},
	{"GD25WQ16E", 0xc8, 0x65150000, 64 * 1024, 32, false},
	{"GD25Q32", 0xc8, 0x40160000, 64 * 1024, 64, false},
	{"GD25LQ32E", 0xc8, 0x60160000, 64 * 1024, 64, false},
	{"GD25WQ32E", 0xc8, 0x65160000, 64 * 1024, 64, false},
	{"GD25Q64CSIG", 0xc8, 0x4017c840, 64 * 1024, 128, false},
	{"GD25LQ64E", 0xc8, 0x60170000, 64 * 1024, 128, false},
	{"GD25Q128CSIG", 0xc8, 0x4018c840, 64 * 1024, 256, false},
	{"GD25LQ128D", 0xc8, 0x60180000, 64 * 1024, 256, false},
	{"GD25F256F", 0xc8, 0x43190000, 64 * 1024, 512, true},
	{"GD25Q256CSIG", 0xc8, 0x4019c840, 64 * 1024, 512, true},

	{"MX25L4005A", 0xc2, 0x2013c220, 64 * 1024, 8, false},
	{"MX25L8005M", 0xc2, 0x2014c220, 64 * 1024, 16, false},
	{"MX25L1605D", 0xc2, 0x2015c220, 64 * 1024, 32, false},
	{"MX25U1635F", 0xc2, 0x2535c220, 64 * 1024, 32, false},
	{"MX25L3205D", 0xc2, 0x2016c220, 64 * 1024, 64, false},
	{"MX25U3235F", 0xc2, 0x2536c220, 64 * 1024, 64, false},
	{"MX25L6405D", 0xc2, 0x2017c220, 64 * 1024, 128, false},
	{"MX25U6435F", 0xc2, 0x2537c220, 64 * 1024, 128, false},
	{"MX25L12805D", 0xc2, 0x2018c220, 64 * 1024, 256, false},
	{"MX25U12835F", 0xc2, 0x2538c220, 64 * 1024, 256, false},
	{"MX25L25635E", 0xc2, 0x2019c220, 64 * 1024, 512, true},
	{"MX25U25643G", 0xc2, 0x2539c220, 64 * 1024, 512, true},
	{"MX25L51245G", 0xc2, 0x201ac220, 64 * 1024, 1024, true},
	{"MX25U51245G", 0xc2, 0x253ac220, 64 * 1024, 1024, true},

	{"YC25Q128", 0xd8, 0x4018d840, 64 * 1024, 256, false},

	{"FL016AIF", 0x01, 0x02140000, 64 * 1024, 32, false},
	{"FL064AIF", 0x01, 0x02160000, 64 * 1024, 128, false},
	{"S25FL016P", 0x01, 0x02144D00, 64 * 1024, 32, false},
	{"S25FL032P", 0x01, 0x02154D00, 64 * 1024, 64, false},
	{"S25FL064P", 0x01, 0x02164D00, 64 * 1024, 128, false},
	{"S25FL128P", 0x01, 0x20180301, 64 * 1024, 256, false},
	{"S25FL129P", 0x01, 0x20184D01, 64 * 1024, 256, false},
	{"S25FL256S", 0x01, 0x02194D01, 64 * 1024, 512, true},
	{"S25FL512S", 0x01, 0x02204D00, 256 * 1024, 256, true},
	{"S25FL116K", 0x01, 0x40150140, 64 * 1024, 32, false},
	{"S25FL132K", 0x01, 0x40160140, 64 * 1024, 64, false},
	{"S25FL164K", 0x01, 0x40170140, 64 * 1024, 128, false},

	{"EN25F16", 0x1c, 0x31151c31, 64 * 1024, 32, false},
	{"EN25Q16", 0x1c, 0x30151c30, 64 * 1024, 32, false},
	{"EN25QH16", 0x1c, 0x70151c70, 64 * 1024, 32, false},
	{"EN25Q32B", 0x1c, 0x30161c30, 64 * 1024, 64, false},
	{"EN25F32", 0x1c, 0x31161c31, 64 * 1024, 64, false},
	{"EN25F64", 0x1c, 0x20171c20, 64 * 1024, 128, false},
	{"EN25Q64", 0x1c, 0x30171c30, 64 * 1024, 128, false},
	{"GM25Q64A", 0x1c, 0x40171c40, 64 * 1024, 128, false},
	{"EN25QA64A", 0x1c, 0x60170000, 64 * 1024, 128, false},
	{"EN25XQ128A", 0x1c, 0x71181c71, 64 * 1024, 256, false},
	{"EN25QH64A", 0x1c, 0x70171c70, 64 * 1024, 128, false},
	{"EN25Q128", 0x1c, 0x30181c30, 64 * 1024, 256, false},
	{"EN25XQ128A", 0x1c, 0x71181c71, 64 * 1024, 256, false}, // duplicate in source, kept verbatim
	{"EN25QA128A", 0x1c, 0x60180000, 64 * 1024, 256, false},
	{"EN25QH128A", 0x1c, 0x70181c70, 64 * 1024, 256, false},
	{"GM25Q128A", 0x1c, 0x40181c40, 64 * 1024, 256, false},
	{"EN25Q256", 0x1c, 0x70191c70, 64 * 1024, 512, true},

	{"W25X05", 0xef, 0x30100000, 64 * 1024, 1, false},
	{"W25X10", 0xef, 0x30110000, 64 * 1024, 2, false},
	{"W25X20", 0xef, 0x30120000, 64 * 1024, 4, false},
	{"W25X40", 0xef, 0x30130000, 64 * 1024, 8, false},
	{"W25X80", 0xef, 0x30140000, 64 * 1024, 16, false},
	{"W25X16", 0xef, 0x30150000, 64 * 1024, 32, false},
	{"W25X32VS", 0xef, 0x30160000, 64 * 1024, 64, false},
	{"W25X64", 0xef, 0x30170000, 64 * 1024, 128, false},
	{"W25Q20CL", 0xef, 0x40120000, 64 * 1024, 4, false},
	{"W25Q20BW", 0xef, 0x50120000, 64 * 1024, 4, false},
	{"W25Q20EW", 0xef, 0x60120000, 64 * 1024, 4, false},
	{"W25Q80", 0xef, 0x50140000, 64 * 1024, 16, false},
	{"W25Q80BL", 0xef, 0x40140000, 64 * 1024, 16, false},
	{"W25Q16JQ", 0xef, 0x40150000, 64 * 1024, 32, false},
	{"W25Q16JM", 0xef, 0x70150000, 64 * 1024, 32, false},
	{"W25Q32BV", 0xef, 0x40160000, 64 * 1024, 64, false},
	{"W25Q32DW", 0xef, 0x60160000, 64 * 1024, 64, false},
	{"W25Q32JWIM", 0xef, 0x80160000, 64 * 1024, 64, false},
	{"W25Q64BV", 0xef, 0x40170000, 64 * 1024, 128, false},
	{"W25Q64DW", 0xef, 0x60170000, 64 * 1024, 128, false},
	{"W25Q64JVIM", 0xef, 0x70170000, 64 * 1024, 128, false},
	{"W25Q64JWIM", 0xef, 0x80170000, 64 * 1024, 128, false},
	{"W25Q128BV", 0xef, 0x40180000, 64 * 1024, 256, false},
	{"W25Q128FW", 0xef, 0x60180000, 64 * 1024, 256, false},
	{"W25Q256FV", 0xef, 0x40190000, 64 * 1024, 512, true},
	{"W25Q256JW", 0xef, 0x60190000, 64 * 1024, 512, true},
	{"W25Q256JWIM", 0xef, 0x80190000, 64 * 1024, 512, true},
	{"W25Q512JV", 0xef, 0x40200000, 64 * 1024, 1024, true},
	{"W25Q512JVIM", 0xef, 0x70200000, 64 * 1024, 1024, true},
	{"W25Q512NW", 0xef, 0x60200000, 64 * 1024, 1024, true},
	{"W25Q512NWIM", 0xef, 0x80200000, 64 * 1024, 1024, true},

	{"M25P05", 0x20, 0x20100000, 64 * 1024, 1, false},
	{"M25P10", 0x20, 0x20110000, 64 * 1024, 2, false},
	{"M25P20", 0x20, 0x20120000, 64 * 1024, 4, false},
	{"M25P40", 0x20, 0x20130000, 64 * 1024, 8, false},
	{"M25P80", 0x20, 0x20140000, 64 * 1024, 16, false},
	{"M25P16", 0x20, 0x20150000, 64 * 1024, 32, false},
	{"M25P32", 0x20, 0x20160000, 64 * 1024, 64, false},
	{"M25P64", 0x20, 0x20170000, 64 * 1024, 128, false},
	{"M25P128", 0x20, 0x20180000, 64 * 1024, 256, false},
	{"N25Q016A", 0x20, 0xbb151000, 64 * 1024, 32, false},
	{"N25Q032A", 0x20, 0xba161000, 64 * 1024, 64, false},
	{"N25Q032A", 0x20, 0xbb161000, 64 * 1024, 64, false},
	{"N25Q064A", 0x20, 0xba171000, 64 * 1024, 128, false},
	{"N25Q064A", 0x20, 0xbb171000, 64 * 1024, 128, false},
	{"N25Q128A", 0x20, 0xba181000, 64 * 1024, 256, false},
	{"N25Q128A", 0x20, 0xbb181000, 64 * 1024, 256, false},
	{"N25Q256A", 0x20, 0xba191000, 64 * 1024, 512, true},
	{"N25Q512A", 0x20, 0xba201000, 64 * 1024, 1024, true},
	{"MT25QL64AB", 0x20, 0xba171000, 64 * 1024, 128, false},
	{"MT25QU64AB", 0x20, 0xbb171000, 64 * 1024, 128, false},
	{"MT25QL128AB", 0x20, 0xba181000, 64 * 1024, 256, false},
	{"MT25QU128AB", 0x20, 0xbb181000, 64 * 1024, 256, false},
	{"MT25QL256AB", 0x20, 0xba191000, 64 * 1024, 512, true},
	{"MT25QU256AB", 0x20, 0xbb191000, 64 * 1024, 512, true},
	{"MT25QL512AB", 0x20, 0xba201044, 64 * 1024, 1024, true},
	{"MT25QU512AB", 0x20, 0xbb201044, 64 * 1024, 1024, true},
	{"XM25QH10B", 0x20, 0x40110000, 64 * 1024, 2, false},
	{"XM25QH20B", 0x20, 0x40120000, 64 * 1024, 4, false},
	{"XM25QU41B", 0x20, 0x50130000, 64 * 1024, 8, false},
	{"XM25QH40B", 0x20, 0x40130000, 64 * 1024, 8, false},
	{"XM25QU80B", 0x20, 0x50140000, 64 * 1024, 16, false},
	{"XM25QH80B", 0x20, 0x40140000, 64 * 1024, 16, false},
	{"XM25QU16B", 0x20, 0x50150000, 64 * 1024, 32, false},
	{"XM25QH16C", 0x20, 0x40150000, 64 * 1024, 32, false},
	{"XM25QW16C", 0x20, 0x42150000, 64 * 1024, 32, false},
	{"XM25QH32B", 0x20, 0x40160000, 64 * 1024, 64, false},
	{"XM25QW32C", 0x20, 0x42160000, 64 * 1024, 64, false},
	{"XM25LU32C", 0x20, 0x50160000, 64 * 1024, 64, false},
	{"XM25QH32A", 0x20, 0x70160000, 64 * 1024, 64, false},
	{"XM25QH64C", 0x20, 0x40170000, 64 * 1024, 128, false},
	{"XM25LU64C", 0x20, 0x41170000, 64 * 1024, 128, false},
	{"XM25QW64C", 0x20, 0x42170000, 64 * 1024, 128, false},
	{"XM25QH64A", 0x20, 0x70170000, 64 * 1024, 128, false},
	{"XM25QH128A", 0x20, 0x70182070, 64 * 1024, 256, false},
	{"XM25QH128C", 0x20, 0x40182070, 64 * 1024, 256, false},
	{"XM25LU128C", 0x20, 0x41180000, 64 * 1024, 256, false},
	{"XM25QW128C", 0x20, 0x42180000, 64 * 1024, 256, false},
	{"XM25QH256C", 0x20, 0x40190000, 64 * 1024, 512, true},
	{"XM25QU256C", 0x20, 0x41190000, 64 * 1024, 512, true},
	{"XM25QW256C", 0x20, 0x42190000, 64 * 1024, 512, true},
	{"XM25QH512C", 0x20, 0x40200000, 64 * 1024, 1024, true},
	{"XM25QU512C", 0x20, 0x41200000, 64 * 1024, 1024, true},
	{"XM25QW512C", 0x20, 0x42200000, 64 * 1024, 1024, true},

	{"MD25D20", 0x51, 0x40120000, 64 * 1024, 4, false},
	{"MD25D40", 0x51, 0x40130000, 64 * 1024, 8, false},

	{"ZB25VQ16", 0x5e, 0x40150000, 64 * 1024, 32, false},
	{"ZB25LQ16", 0x5e, 0x50150000, 64 * 1024, 32, false},
	{"ZB25VQ32", 0x5e, 0x40160000, 64 * 1024, 64, false},
	{"ZB25LQ32", 0x5e, 0x50160000, 64 * 1024, 64, false},
	{"ZB25VQ64", 0x5e, 0x40170000, 64 * 1024, 128, false},
	{"ZB25LQ64", 0x5e, 0x50170000, 64 * 1024, 128, false},
	{"ZB25VQ128", 0x5e, 0x40180000, 64 * 1024, 256, false},
	{"ZB25LQ128", 0x5e, 0x50180000, 64 * 1024, 256, false},

	{"LE25U20AMB", 0x62, 0x06120000, 64 * 1024, 4, false},
	{"LE25U40CMC", 0x62, 0x06130000, 64 * 1024, 8, false},

	{"BY25D05AS", 0x68, 0x40100000, 64 * 1024, 1, false},
	{"BY25D10AS", 0x68, 0x40110000, 64 * 1024, 2, false},
	{"BY25D20AS", 0x68, 0x40120000, 64 * 1024, 4, false},
	{"BY25D40AS", 0x68, 0x40130000, 64 * 1024, 8, false},
	{"BY25Q40BL", 0x68, 0x10130000, 64 * 1024, 8, false},
	{"BY25Q40BL", 0x68, 0x60130000, 64 * 1024, 8, false},
	{"BY25Q80BS", 0x68, 0x40140000, 64 * 1024, 16, false},
	{"BY25Q16BS", 0x68, 0x40150000, 64 * 1024, 32, false},
	{"BY25Q16BL", 0x68, 0x10150000, 64 * 1024, 32, false},
	{"BY25Q32BS", 0x68, 0x40160000, 64 * 1024, 64, false},
	{"BY25Q32AL", 0x68, 0x60160000, 64 * 1024, 64, false},
	{"BY25Q64AS", 0x68, 0x40170000, 64 * 1024, 128, false},
	{"BY25Q64AL", 0x68, 0x60170000, 64 * 1024, 128, false},
	{"BY25Q128AS", 0x68, 0x40180000, 64 * 1024, 256, false},
	{"BY25Q128EL", 0x68, 0x60180000, 64 * 1024, 256, false},
	{"BY25Q256ES", 0x68, 0x40190000, 64 * 1024, 512, true},

	{"XT25F04D", 0x0b, 0x40130000, 64 * 1024, 8, false},
	{"XT25F08B", 0x0b, 0x40140000, 64 * 1024, 16, false},
	{"XT25F08D", 0x0b, 0x60140000, 64 * 1024, 16, false},
	{"XT25F16B", 0x0b, 0x40150000, 64 * 1024, 32, false},
	{"XT25Q16D", 0x0b, 0x60150000, 64 * 1024, 32, false},
	{"XT25F32B", 0x0b, 0x40160000, 64 * 1024, 64, false},
	{"XT25F64B", 0x0b, 0x40170000, 64 * 1024, 128, false},
	{"XT25Q64D", 0x0b, 0x60170000, 64 * 1024, 128, false},
	{"XT25F128B", 0x0b, 0x40180000, 64 * 1024, 256, false},
	{"XT25F128D", 0x0b, 0x60180000, 64 * 1024, 256, false},

	{"PM25LQ016", 0x7f, 0x9d450000, 64 * 1024, 32, false},
	{"PM25LQ032", 0x7f, 0x9d460000, 64 * 1024, 64, false},
	{"PM25LQ064", 0x7f, 0x9d470000, 64 * 1024, 128, false},
	{"PM25LQ128", 0x7f, 0x9d480000, 64 * 1024, 256, false},

	{"IS25LQ010", 0x9d, 0x40110000, 64 * 1024, 2, false},
	{"IS25LQ020", 0x9d, 0x40120000, 64 * 1024, 4, false},
	{"IS25WP040D", 0x9d, 0x70130000, 64 * 1024, 8, false},
	{"IS25LP080D", 0x9d, 0x60140000, 64 * 1024, 16, false},
	{"IS25WP080D", 0x9d, 0x70140000, 64 * 1024, 16, false},
	{"IS25LP016D", 0x9d, 0x60150000, 64 * 1024, 32, false},
	{"IS25WP016D", 0x9d, 0x70150000, 64 * 1024, 32, false},
	{"IS25LP032D", 0x9d, 0x60160000, 64 * 1024, 64, false},
	{"IS25WP032D", 0x9d, 0x70160000, 64 * 1024, 64, false},
	{"IS25LP064D", 0x9d, 0x60170000, 64 * 1024, 128, false},
	{"IS25WP064D", 0x9d, 0x70170000, 64 * 1024, 128, false},
	{"IS25LP128F", 0x9d, 0x60180000, 64 * 1024, 256, false},
	{"IS25WP128F", 0x9d, 0x70180000, 64 * 1024, 256, false},
	{"IS25LP256D", 0x9d, 0x60190000, 64 * 1024, 512, true},
	{"IS25WP256D", 0x9d, 0x70190000, 64 * 1024, 512, true},
	{"IS25LP256D", 0x9d, 0x601A0000, 64 * 1024, 1024, true}, // duplicate name, distinct jedec_id, kept verbatim
	{"IS25WP256D", 0x9d, 0x701A0000, 64 * 1024, 1024, true},

	{"FM25W04", 0xa1, 0x28130000, 64 * 1024, 8, false},
	{"FM25Q04", 0xa1, 0x40130000, 64 * 1024, 8, false},
	{"FM25Q08", 0xa1, 0x40140000, 64 * 1024, 16, false},
	{"FM25W16", 0xa1, 0x28150000, 64 * 1024, 32, false},
	{"FM25Q16", 0xa1, 0x40150000, 64 * 1024, 32, false},
	{"FM25W32", 0xa1, 0x28160000, 64 * 1024, 64, false},
	{"FS25Q32", 0xa1, 0x40160000, 64 * 1024, 64, false},
	{"FM25W64", 0xa1, 0x28170000, 64 * 1024, 128, false},
	{"FS25Q64", 0xa1, 0x40170000, 64 * 1024, 128, false},
	{"FM25W128", 0xa1, 0x28180000, 64 * 1024, 256, false},
	{"FS25Q128", 0xa1, 0x40180000, 64 * 1024, 256, false},

	{"FM25Q04A", 0xf8, 0x32130000, 64 * 1024, 8, false},
	{"FM25M04A", 0xf8, 0x42130000, 64 * 1024, 8, false},
	{"FM25Q08A", 0xf8, 0x32140000, 64 * 1024, 16, false},
	{"FM25M08A", 0xf8, 0x42140000, 64 * 1024, 16, false},
	{"FM25Q16A", 0xf8, 0x32150000, 64 * 1024, 32, false},
	{"FM25M16A", 0xf8, 0x42150000, 64 * 1024, 32, false},
	{"FM25Q32A", 0xf8, 0x32160000, 64 * 1024, 64, false},
	{"FM25M32B", 0xf8, 0x42160000, 64 * 1024, 64, false},
	{"FM25Q64A", 0xf8, 0x32170000, 64 * 1024, 128, false},
	{"FM25M64A", 0xf8, 0x42170000, 64 * 1024, 128, false},
	{"FM25Q128A", 0xf8, 0x32180000, 64 * 1024, 256, false},

	{"PN25F16", 0xe0, 0x40150000, 64 * 1024, 32, false},
	{"PN25F32", 0xe0, 0x40160000, 64 * 1024, 64, false},
	{"PN25F64", 0xe0, 0x40170000, 64 * 1024, 128, false},
	{"PN25F128", 0xe0, 0x40180000, 64 * 1024, 256, false},

	{"P25D05H", 0x85, 0x60100000, 64 * 1024, 1, false},
	{"P25D10H", 0x85, 0x60110000, 64 * 1024, 2, false},
	{"P25D20H", 0x85, 0x60120000, 64 * 1024, 4, false},
	{"P25D40H", 0x85, 0x60130000, 64 * 1024, 8, false},
	{"P25D80H", 0x85, 0x60140000, 64 * 1024, 16, false},
	{"P25Q16H", 0x85, 0x60150000, 64 * 1024, 32, false},
	{"P25Q32H", 0x85, 0x60160000, 64 * 1024, 64, false},
	{"P25Q64H", 0x85, 0x60170000, 64 * 1024, 128, false},
	{"PY25Q64HA", 0x85, 0x20170000, 64 * 1024, 128, false},
	{"P25Q128H", 0x85, 0x60180000, 64 * 1024, 256, false},
	{"PY25Q64HA", 0x85, 0x20170000, 64 * 1024, 128, false}, // duplicate in source, kept verbatim
	{"PY25Q128HA", 0x85, 0x20180000, 64 * 1024, 256, false},

	{"SK25P32", 0x25, 0x60162560, 64 * 1024, 64, false},
	{"SK25P64", 0x25, 0x60172560, 64 * 1024, 128, false},
	{"SK25P128", 0x25, 0x60182560, 64 * 1024, 256, false},

	{"ZD25Q16A", 0xba, 0x40150000, 64 * 1024, 32, false},
	{"ZD25Q32A", 0xba, 0x40160000, 64 * 1024, 64, false},
	{"ZD25Q64A", 0xba, 0x40170000, 64 * 1024, 128, false},
	{"ZD25Q128A", 0xba, 0x40180000, 64 * 1024, 256, false},
	{"ZD25Q16B", 0xba, 0x32150000, 64 * 1024, 32, false},
	{"ZD25Q32B", 0xba, 0x32160000, 64 * 1024, 64, false},
	{"ZD25Q64B", 0xba, 0x32170000, 64 * 1024, 128, false},
	{"ZD25Q128B", 0xba, 0x32180000, 64 * 1024, 256, false},

	{"PCT25VF010A", 0xbf, 0x49000000, 64 * 1024, 2, false},
	{"PCT25VF020B", 0xbf, 0x258c0000, 64 * 1024, 4, false},
	{"PCT25VF040B", 0xbf, 0x258d0000, 64 * 1024, 8, false},
	{"PCT25VF080B", 0xbf, 0x258e0000, 64 * 1024, 16, false},
	{"PCT25VF016B", 0xbf, 0x25410000, 64 * 1024, 32, false},
	{"PCT25VF032B", 0xbf, 0x254a0000, 64 * 1024, 64, false},
	{"PCT25VF064C", 0xbf, 0x254b0000, 64 * 1024, 128, false},
	{"PCT26VF016", 0xbf, 0x26010000, 64 * 1024, 32, false},
	{"PCT26VF032", 0xbf, 0x26020000, 64 * 1024, 64, false},
}

// jedecStripMask keeps only the top 16 bits of the 32-bit JEDEC word
// (the two device-ID bytes; the manufacturer byte is compared
// separately), discarding the low two bytes the way chip_prob's
// jedec_strip does, for the coarser "upper 16 bits" match tier.
const jedecStripMask = 0xffff0000

// List returns every chip the table carries, for the CLI's list
// subcommand (support_snor_list in flashcmd_api.c).
func List() []ChipInfo {
	out := make([]ChipInfo, len(chips))
	copy(out, chips)
	return out
}

// lookup finds a chip_info by JEDEC ID, reproducing chip_prob's
// two-tier matching: an exact 4-byte match, else an upper-16-bit match
// on the same manufacturer byte. ok is false when neither tier matches,
// and probe then falls back to nearest.
func lookup(mfr byte, jedec uint32) (ChipInfo, bool) {
	stripped := jedec & jedecStripMask
	for _, c := range chips {
		if c.ID != mfr {
			continue
		}
		if c.JEDECID == jedec || c.JEDECID&jedecStripMask == stripped {
			return c, true
		}
	}
	return ChipInfo{}, false
}

// nearest returns the chip sharing jedec's manufacturer byte whose
// JEDECID has the fewest differing bits against jedec (a Hamming-weight
// nearest match), mirroring the `weight = info->jedec_id ^ jedec`
// tracking in chip_prob. ok is false when no chip shares the
// manufacturer byte at all.
func nearest(mfr byte, jedec uint32) (ChipInfo, bool) {
	var best ChipInfo
	bestWeight := -1
	for _, c := range chips {
		if c.ID != mfr {
			continue
		}
		w := popcount(c.JEDECID ^ jedec)
		if bestWeight == -1 || w < bestWeight {
			bestWeight = w
			best = c
		}
	}
	return best, bestWeight != -1
}

func popcount(v uint32) int {
	n := 0
	for v != 0 {
		n++
		v &= v - 1
	}
	return n
}
